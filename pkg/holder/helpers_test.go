package holder

import (
	"testing"

	"github.com/kysee/bbsdid/pkg/bbs"
	"github.com/kysee/bbsdid/pkg/group"
	"github.com/kysee/bbsdid/pkg/issuer"
	"github.com/kysee/bbsdid/pkg/wire"
)

// issueCleartext requests a credential directly from iss, without going
// through the issuer HTTP handler, for an all-cleartext attribute vector.
func issueCleartext(iss *issuer.Issuer, values map[string]string) (*bbs.Credential, error) {
	attrs := make(map[string]wire.AttributeInput, len(values))
	for k, v := range values {
		attrs[k] = wire.AttributeInput{Value: v}
	}
	return iss.Issue(attrs)
}

func randomG1(t *testing.T) (group.G1, error) {
	t.Helper()
	return group.RandomG1()
}

func randomScalar(t *testing.T) (group.Scalar, error) {
	t.Helper()
	return group.RandomScalar()
}
