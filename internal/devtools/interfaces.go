package devtools

import "context"

type Demo interface {
	Resolve(name string) Scenario
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
	SampleCode(scenario string) string
	SampleDescription(scenario string) string
}
