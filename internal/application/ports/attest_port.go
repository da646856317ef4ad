package ports

import (
	"context"

	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
)

// AttestationSigner puerto del firmador: produce el payload canónico, su
// hash de contenido y la firma. Determinista: mismo payload, mismo hash.
type AttestationSigner interface {
	// Sign serializa el payload canónico, calcula SHA-256 y firma el hash.
	// Devuelve (payloadJSON, contentHashHex, signatureHex).
	Sign(att *entity.Attestation, result *entity.KPIResult) (payload, hash, signature string, err error)
	// PublicKeyHex clave pública Ed25519 para verificación externa.
	PublicKeyHex() string
}

// AttestationTxRunner ejecuta fn con un repositorio atado a una transacción.
// La cadena prev_hash exige que la lectura de la última attestation y el
// insert de la nueva ocurran en la misma transacción.
type AttestationTxRunner interface {
	Run(ctx context.Context, fn func(attRepo repository.AttestationRepository) error) error
}

// StatementGenerator puerto del generador de extractos PDF mensuales.
type StatementGenerator interface {
	// Generate renderiza el extracto de la attestation y devuelve los bytes del PDF.
	Generate(att *entity.Attestation, merchant *entity.Merchant) ([]byte, error)
}
