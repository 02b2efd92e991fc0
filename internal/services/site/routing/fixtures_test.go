package routing

import (
	"net/http"
	"testing"

	"github.com/louisbranch/sitegate/internal/platform/i18n"
)

const (
	testMirrorHost = "https://docs.example.cn"
	testFunnelURL  = "https://example.com/intro"
)

func testPolicy() Policy {
	return Policy{
		MirrorLocale: "zh",
		FunnelLocale: "en",
		MirrorHost:   testMirrorHost,
		FunnelURL:    testFunnelURL,
	}
}

func mustPolicy(t *testing.T) Policy {
	t.Helper()
	policy, err := testPolicy().Normalize()
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	return policy
}

type countingNormalizer struct {
	calls    int
	decision Decision
}

func (n *countingNormalizer) Normalize(_ *http.Request, _ i18n.Config) Decision {
	n.calls++
	return n.decision
}

func newTestRouter(t *testing.T, defaultLocale string, normalizer Normalizer) *Router {
	t.Helper()
	router, err := New(Config{
		Locales:    i18n.MustConfig(defaultLocale, "en", "zh"),
		Policy:     testPolicy(),
		Exclusions: DefaultExclusions(),
		Normalizer: normalizer,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return router
}
