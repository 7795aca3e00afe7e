// Package gitmeta resolves best-effort repository metadata for the scan
// target. A target outside any git checkout is normal, not an error.
package gitmeta

import (
	git "github.com/go-git/go-git/v5"

	"github.com/riskgate/riskgate/internal/types"
)

// Lookup returns the branch and commit of the checkout containing root, or
// nil when root is not inside a repository or HEAD cannot be resolved.
func Lookup(root string) *types.GitInfo {
	repo, err := git.PlainOpenWithOptions(root, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil
	}
	head, err := repo.Head()
	if err != nil {
		return nil
	}

	info := &types.GitInfo{Commit: head.Hash().String()}
	if head.Name().IsBranch() {
		info.Branch = head.Name().Short()
	}
	return info
}
