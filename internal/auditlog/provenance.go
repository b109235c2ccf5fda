package auditlog

import "context"

// Provenance - откуда пришёл запрос, заполняется HTTP-слоем
type Provenance struct {
	IP        string
	UserAgent string
}

type provenanceKey struct{}

func WithProvenance(ctx context.Context, p Provenance) context.Context {
	return context.WithValue(ctx, provenanceKey{}, p)
}

func ProvenanceFrom(ctx context.Context) Provenance {
	p, _ := ctx.Value(provenanceKey{}).(Provenance)
	return p
}
