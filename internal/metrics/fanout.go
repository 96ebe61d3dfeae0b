package metrics

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/fundscope/internal/contracts"
)

// fanOut runs fn once per fund id with bounded concurrency.
// 펀드별 실패는 다른 펀드를 중단시키지 않음 (cancellation만 전체 중단)
// 결과는 요청 순서대로 재조합
func fanOut[T any](ctx context.Context, workers int, ids []int64, fn func(ctx context.Context, id int64) (T, error)) ([]T, []contracts.FundFailure, error) {
	results := make([]T, len(ids))
	errs := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}

	for i, id := range ids {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = fn(gctx, id)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ok := make([]T, 0, len(ids))
	failures := make([]contracts.FundFailure, 0)
	for i, id := range ids {
		if errs[i] != nil {
			failures = append(failures, contracts.FundFailure{
				FundID:  id,
				Kind:    contracts.KindOf(errs[i]),
				Message: errs[i].Error(),
			})
			continue
		}
		ok = append(ok, results[i])
	}

	return ok, failures, nil
}

// uniqueIDs drops repeated ids, keeping first-seen order
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
