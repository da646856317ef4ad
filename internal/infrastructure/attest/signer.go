// Package attest implementa la firma Ed25519 de attestations sobre un
// payload canónico: mismo contenido, mismos bytes, mismo hash, sin importar
// el proceso que firme.
package attest

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
)

var _ ports.AttestationSigner = (*Ed25519Signer)(nil)

// canonicalPayload es exactamente lo que se serializa, hashea y firma. El
// orden de los campos es el del struct (encoding/json lo respeta) y los
// montos van como string decimal para que el consumidor no dependa de
// representación de punto flotante.
type canonicalPayload struct {
	Version    int    `json:"version"`
	MerchantID string `json:"merchant_id"`
	Period     string `json:"period"`
	Currency   string `json:"currency"`
	GrossSales string `json:"gross_sales"`
	NetSales   string `json:"net_sales"`
	OrderCount int    `json:"order_count"`
	RefundRate string `json:"refund_rate"`
	PrevHash   string `json:"prev_hash"`
}

const payloadVersion = 1

// Ed25519Signer firma el hash SHA-256 del payload canónico con Ed25519.
type Ed25519Signer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
}

// NewEd25519Signer construye el firmador desde el seed en hex (64 chars).
func NewEd25519Signer(seedHex string) (*Ed25519Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("attest: seed no es hex válido: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.New("attest: el seed debe tener 32 bytes (64 chars hex)")
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &Ed25519Signer{
		priv: priv,
		pub:  priv.Public().(ed25519.PublicKey),
	}, nil
}

// Sign implementa ports.AttestationSigner.
func (s *Ed25519Signer) Sign(att *entity.Attestation, result *entity.KPIResult) (string, string, string, error) {
	if att == nil || result == nil {
		return "", "", "", errors.New("attest: se requieren attestation y resultado KPI")
	}
	payload := canonicalPayload{
		Version:    payloadVersion,
		MerchantID: att.MerchantID,
		Period:     att.Period,
		Currency:   att.Currency,
		GrossSales: result.GrossSales.String(),
		NetSales:   result.NetSales.String(),
		OrderCount: result.OrderCount,
		RefundRate: result.RefundRate.String(),
		PrevHash:   att.PrevHash,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", "", "", fmt.Errorf("attest: serializar payload: %w", err)
	}

	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])
	signature := hex.EncodeToString(ed25519.Sign(s.priv, sum[:]))
	return string(raw), hash, signature, nil
}

// PublicKeyHex implementa ports.AttestationSigner.
func (s *Ed25519Signer) PublicKeyHex() string {
	return hex.EncodeToString(s.pub)
}

// Verify comprueba una firma contra la clave pública del firmador. Útil para
// el endpoint de verificación y para auditoría externa.
func (s *Ed25519Signer) Verify(hashHex, signatureHex string) bool {
	sum, err := hex.DecodeString(hashHex)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}
	return ed25519.Verify(s.pub, sum, sig)
}
