package report

import "github.com/riskgate/riskgate/internal/types"

// Exit codes consumed by the deployment pipeline.
const (
	ExitAllow        = 0
	ExitManualReview = 1
	ExitBlocked      = 3
)

// ExitCode maps the recommendation to the process exit code. failOnReview
// controls whether Manual Review Required fails the run; Deployment Blocked
// always does.
func ExitCode(rec types.Recommendation, failOnReview bool) int {
	switch rec {
	case types.RecDeployBlocked:
		return ExitBlocked
	case types.RecManualReview:
		if failOnReview {
			return ExitManualReview
		}
		return ExitAllow
	default:
		return ExitAllow
	}
}
