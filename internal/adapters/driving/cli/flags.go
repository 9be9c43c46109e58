package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/policyqa/internal/core/domain"
)

// retrievalFlags are the per-request retrieval overrides shared by ask,
// select and chat. Negative floor and weights mean "use the strategy".
type retrievalFlags struct {
	strategy   string
	pool       int
	floor      float64
	semantic   float64
	keyword    float64
	structural float64
}

func (f *retrievalFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.strategy, "domain", "d", "", "retrieval strategy (insurance, legal)")
	fs.IntVar(&f.pool, "pool", 0, "candidate pool size (0 = strategy default)")
	fs.Float64Var(&f.floor, "floor", -1, "relevance floor in [0,1]")
	fs.Float64Var(&f.semantic, "w-semantic", -1, "semantic weight")
	fs.Float64Var(&f.keyword, "w-keyword", -1, "keyword weight")
	fs.Float64Var(&f.structural, "w-structural", -1, "structural weight")
}

func (f *retrievalFlags) reset() {
	*f = retrievalFlags{floor: -1, semantic: -1, keyword: -1, structural: -1}
}

// options converts the flags and validates them.
func (f *retrievalFlags) options() (domain.RetrievalOptions, error) {
	opts := domain.RetrievalOptions{
		Strategy:     f.strategy,
		BasePoolSize: f.pool,
	}
	if f.floor >= 0 {
		floor := f.floor
		opts.RelevanceFloor = &floor
	}
	if f.semantic >= 0 || f.keyword >= 0 || f.structural >= 0 {
		w := domain.DefaultWeights()
		if f.semantic >= 0 {
			w.Semantic = f.semantic
		}
		if f.keyword >= 0 {
			w.Keyword = f.keyword
		}
		if f.structural >= 0 {
			w.Structural = f.structural
		}
		opts.Weights = &w
	}
	if err := opts.Validate(); err != nil {
		return domain.RetrievalOptions{}, err
	}
	return opts, nil
}
