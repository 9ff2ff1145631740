// Package stats computes the dashboard counters: how many registrations sit
// in each review status, per branch and overall.
package stats

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"takaful/internal/branch"
	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

// Counter is the slice of the registration store the service reads from.
type Counter interface {
	CountByStatus(ctx context.Context, branchID domain.BranchID) (map[models.Status]int, error)
}

// Branches lists the branches to fan out over.
type Branches interface {
	List(ctx context.Context, activeOnly bool) ([]*branch.Branch, error)
}

// BranchStats is the counter block for one branch.
type BranchStats struct {
	BranchID   string         `json:"branch_id"`
	BranchName string         `json:"branch_name"`
	ByStatus   map[string]int `json:"by_status"`
	Total      int            `json:"total"`
}

// Overview is the admin dashboard payload.
type Overview struct {
	ByStatus map[string]int `json:"by_status"`
	Total    int            `json:"total"`
	Branches []BranchStats  `json:"branches"`
}

// Service aggregates registration counts.
type Service struct {
	regs     Counter
	branches Branches
	logger   *slog.Logger
}

func New(regs Counter, branches Branches, logger *slog.Logger) *Service {
	return &Service{regs: regs, branches: branches, logger: logger}
}

// ForBranch returns the counters for one branch. Branch managers call this
// for their own dashboard.
func (s *Service) ForBranch(ctx context.Context, actor domain.Actor, branchID domain.BranchID) (*BranchStats, error) {
	switch actor.Role {
	case domain.RoleAdmin:
	case domain.RoleBranchManager, domain.RoleEmployee:
		branchID = actor.BranchID
	default:
		return nil, dErrors.New(dErrors.CodeForbidden, "stats require a staff role")
	}

	counts, err := s.regs.CountByStatus(ctx, branchID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count registrations")
	}
	return &BranchStats{
		BranchID: branchID.String(),
		ByStatus: statusMap(counts),
		Total:    total(counts),
	}, nil
}

// Overview fans out one count query per branch and aggregates the totals.
// Admin only.
func (s *Service) Overview(ctx context.Context, actor domain.Actor) (*Overview, error) {
	if actor.Role != domain.RoleAdmin {
		return nil, dErrors.New(dErrors.CodeForbidden, "the overview is admin only")
	}

	branches, err := s.branches.List(ctx, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list branches")
	}

	out := &Overview{
		ByStatus: make(map[string]int),
		Branches: make([]BranchStats, len(branches)),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i, b := range branches {
		g.Go(func() error {
			counts, err := s.regs.CountByStatus(gctx, b.ID)
			if err != nil {
				return err
			}
			stats := BranchStats{
				BranchID:   b.ID.String(),
				BranchName: b.Name,
				ByStatus:   statusMap(counts),
				Total:      total(counts),
			}
			mu.Lock()
			out.Branches[i] = stats
			for status, n := range stats.ByStatus {
				out.ByStatus[status] += n
			}
			out.Total += stats.Total
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to aggregate stats")
	}
	return out, nil
}

func statusMap(counts map[models.Status]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

func total(counts map[models.Status]int) int {
	sum := 0
	for _, n := range counts {
		sum += n
	}
	return sum
}
