/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubwrite provides the repository-mutation tools used in fix mode.
package githubwrite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"chainguard.dev/webster/agents/toolcall"
	"chainguard.dev/webster/ghclient"
	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
)

// Timeout bounds each GitHub call.
const Timeout = 15 * time.Second

// ProtectedBranches may never be committed to directly.
var ProtectedBranches = []string{"main", "master"}

type createBranchArgs struct {
	Repo       string `json:"repo" jsonschema:"required,description=Repository in 'owner/repo' format."`
	Branch     string `json:"branch" jsonschema:"required,description=Name for the new branch."`
	BaseBranch string `json:"base_branch" jsonschema:"description=Branch to branch off from."`
}

type fileArgs struct {
	Repo    string `json:"repo" jsonschema:"required,description=Repository in 'owner/repo' format."`
	Path    string `json:"path" jsonschema:"required,description=File path within the repository (e.g. 'src/index.html')."`
	Message string `json:"message" jsonschema:"required,description=Commit message."`
	Content string `json:"content" jsonschema:"required,description=New file content as plain text (not base64)."`
	Branch  string `json:"branch" jsonschema:"required,description=Branch to commit to."`
	SHA     string `json:"sha" jsonschema:"description=Current file SHA. Required when updating an existing file and omitted when creating one."`
}

type pullRequestArgs struct {
	Repo  string `json:"repo" jsonschema:"required,description=Repository in 'owner/repo' format."`
	Title string `json:"title" jsonschema:"required,description=PR title."`
	Body  string `json:"body" jsonschema:"required,description=PR description."`
	Head  string `json:"head" jsonschema:"required,description=Branch with the changes."`
	Base  string `json:"base" jsonschema:"description=Branch to merge into."`
}

// Tools returns gh_create_branch, gh_create_or_update_file and
// gh_create_pull_request acting through client.
func Tools(client *github.Client) []toolcall.Tool {
	return []toolcall.Tool{
		toolcall.Typed("gh_create_branch",
			"Create a new branch in a GitHub repository. Returns a confirmation message or an error.",
			createBranchArgs{BaseBranch: "main"},
			func(ctx context.Context, a createBranchArgs) string {
				if err := createBranch(ctx, client, a); err != nil {
					clog.FromContext(ctx).With("repo", a.Repo, "branch", a.Branch, "error", err).Warn("Branch creation failed")
					return fmt.Sprintf("Error creating branch '%s' in %s: %v", a.Branch, a.Repo, err)
				}
				return fmt.Sprintf("Branch '%s' created from '%s' in %s.", a.Branch, a.BaseBranch, a.Repo)
			}),

		toolcall.Typed("gh_create_or_update_file",
			"Create or update a file in a GitHub repository. Returns a confirmation message with the commit SHA, or an error.",
			fileArgs{},
			func(ctx context.Context, a fileArgs) string {
				if slices.Contains(ProtectedBranches, a.Branch) {
					return "Error: committing directly to 'main' or 'master' is not allowed. Create a feature branch first."
				}
				sha, err := writeFile(ctx, client, a)
				if err != nil {
					clog.FromContext(ctx).With("repo", a.Repo, "path", a.Path, "error", err).Warn("File commit failed")
					return fmt.Sprintf("Error committing file '%s' in %s: %v", a.Path, a.Repo, err)
				}
				return fmt.Sprintf("File '%s' committed to branch '%s' in %s. Commit: %s", a.Path, a.Branch, a.Repo, sha)
			}),

		toolcall.Typed("gh_create_pull_request",
			"Open a pull request in a GitHub repository. Returns the PR URL or an error message.",
			pullRequestArgs{Base: "main"},
			func(ctx context.Context, a pullRequestArgs) string {
				url, err := createPullRequest(ctx, client, a)
				if err != nil {
					clog.FromContext(ctx).With("repo", a.Repo, "head", a.Head, "error", err).Warn("Pull request creation failed")
					return fmt.Sprintf("Error creating pull request in %s: %v", a.Repo, err)
				}
				clog.FromContext(ctx).With("repo", a.Repo, "pr_url", url).Info("Pull request created")
				return "Pull request created: " + url
			}),
	}
}

func createBranch(ctx context.Context, client *github.Client, a createBranchArgs) error {
	owner, repo, err := ghclient.SplitRepo(a.Repo)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	base, _, err := client.Repositories.GetBranch(ctx, owner, repo, a.BaseBranch, 1)
	if err != nil {
		return fmt.Errorf("reading base branch: %w", err)
	}
	sha := base.GetCommit().GetSHA()
	if sha == "" {
		return fmt.Errorf("base branch %q has no commit", a.BaseBranch)
	}

	_, _, err = client.Git.CreateRef(ctx, owner, repo, github.CreateRef{
		Ref: "refs/heads/" + a.Branch,
		SHA: sha,
	})
	return err
}

func writeFile(ctx context.Context, client *github.Client, a fileArgs) (string, error) {
	owner, repo, err := ghclient.SplitRepo(a.Repo)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(a.Message),
		Content: []byte(a.Content),
		Branch:  github.Ptr(a.Branch),
	}
	var resp *github.RepositoryContentResponse
	if a.SHA != "" {
		opts.SHA = github.Ptr(a.SHA)
		resp, _, err = client.Repositories.UpdateFile(ctx, owner, repo, a.Path, opts)
	} else {
		resp, _, err = client.Repositories.CreateFile(ctx, owner, repo, a.Path, opts)
	}
	if err != nil {
		return "", err
	}
	sha := resp.Commit.GetSHA()
	if sha == "" {
		return "", fmt.Errorf("response carried no commit SHA")
	}
	return sha, nil
}

func createPullRequest(ctx context.Context, client *github.Client, a pullRequestArgs) (string, error) {
	owner, repo, err := ghclient.SplitRepo(a.Repo)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	pr, _, err := client.PullRequests.Create(ctx, owner, repo, &github.NewPullRequest{
		Title: github.Ptr(a.Title),
		Body:  github.Ptr(a.Body),
		Head:  github.Ptr(a.Head),
		Base:  github.Ptr(a.Base),
	})
	if err != nil {
		return "", err
	}
	if pr.GetHTMLURL() == "" {
		return "", fmt.Errorf("response carried no pull request URL")
	}
	return pr.GetHTMLURL(), nil
}
