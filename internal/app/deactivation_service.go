// internal/app/deactivation_service.go
package app

import (
	"context"
	"fmt"
	"time"

	"shabbat_deactivate/internal/domain/subscription"

	"github.com/sirupsen/logrus"
)

// AuditSink records every deactivated address.
type AuditSink interface {
	Append(addresses []string, at time.Time) error
}

// Reporter receives the outcome of a completed run.
type Reporter interface {
	Report(ctx context.Context, result *RunResult) error
}

// RunOptions are the operator-supplied switches for one run.
type RunOptions struct {
	Policy subscription.Policy
	DryRun bool
	Quiet  bool // Suppresses per-candidate bounce count lines
}

// RunResult summarizes one run.
type RunResult struct {
	Candidates  []string
	Deactivated int
	DryRun      bool
	RanAt       time.Time
}

type DeactivationService struct {
	repo     subscription.Repository
	sink     AuditSink
	reporter Reporter // Optional
	logger   logrus.FieldLogger
	now      func() time.Time
}

func NewDeactivationService(
	repo subscription.Repository,
	sink AuditSink,
	reporter Reporter,
	logger logrus.FieldLogger,
) *DeactivationService {
	return &DeactivationService{
		repo:     repo,
		sink:     sink,
		reporter: reporter,
		logger:   logger,
		now:      time.Now,
	}
}

// FindCandidates returns the addresses that currently satisfy the policy.
func (s *DeactivationService) FindCandidates(ctx context.Context, opts RunOptions) ([]string, error) {
	if len(opts.Policy.Reasons) == 0 {
		s.logger.Warn("Empty reason list, nothing to select")
		return []string{}, nil
	}

	groups, err := s.repo.ListBounceGroups(ctx, opts.Policy.Reasons)
	if err != nil {
		return nil, fmt.Errorf("failed to select candidates: %w", err)
	}

	if !opts.Quiet {
		for _, g := range groups {
			if opts.Policy.Qualifies(g) {
				s.logger.Infof("%s (%d bounces)", g.EmailAddress, g.Count)
			}
		}
	}
	return subscription.SelectCandidates(groups, opts.Policy), nil
}

// Run selects candidates and, unless DryRun is set, deactivates them and
// appends their audit lines. A storage or sink error aborts the run.
func (s *DeactivationService) Run(ctx context.Context, opts RunOptions) (*RunResult, error) {
	result := &RunResult{DryRun: opts.DryRun, RanAt: s.now()}

	addrs, err := s.FindCandidates(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Candidates = addrs
	s.logger.Infof("Deactivating %d subscriptions", len(addrs))

	if !opts.DryRun && len(addrs) > 0 {
		if err := s.repo.Deactivate(ctx, addrs); err != nil {
			return nil, fmt.Errorf("failed to deactivate subscriptions: %w", err)
		}
		result.Deactivated = len(addrs)

		if err := s.sink.Append(addrs, result.RanAt); err != nil {
			return nil, fmt.Errorf("failed to write audit log: %w", err)
		}
	}

	if s.reporter != nil {
		if err := s.reporter.Report(ctx, result); err != nil {
			s.logger.WithError(err).Warn("Failed to send run report")
		}
	}
	return result, nil
}
