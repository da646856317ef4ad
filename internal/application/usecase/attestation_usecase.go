package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/application/ports"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/kpi"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
)

// AttestationUseCase construye, firma y persiste la attestation mensual de
// ingresos de un comercio, y renderiza su extracto PDF.
//
// El período se atesta con la ventana de 30 días que termina en la medianoche
// local del primer día del mes siguiente: el motor solo conoce ventanas
// trailing de 30/90, y ese corte fija un "now" reproducible por período.
type AttestationUseCase struct {
	attRepo      repository.AttestationRepository
	merchantRepo repository.MerchantRepository
	txRunner     ports.AttestationTxRunner
	kpiUC        *KPIUseCase
	signer       ports.AttestationSigner
	statements   ports.StatementGenerator
}

// NewAttestationUseCase construye el caso de uso.
func NewAttestationUseCase(
	attRepo repository.AttestationRepository,
	merchantRepo repository.MerchantRepository,
	txRunner ports.AttestationTxRunner,
	kpiUC *KPIUseCase,
	signer ports.AttestationSigner,
	statements ports.StatementGenerator,
) *AttestationUseCase {
	return &AttestationUseCase{
		attRepo:      attRepo,
		merchantRepo: merchantRepo,
		txRunner:     txRunner,
		kpiUC:        kpiUC,
		signer:       signer,
		statements:   statements,
	}
}

// Create atesta el período indicado (vacío = mes calendario anterior).
// Idempotencia por período: un segundo intento devuelve ErrDuplicate.
func (uc *AttestationUseCase) Create(ctx context.Context, merchantID string, in dto.CreateAttestationRequest) (*dto.AttestationResponse, error) {
	if uc.signer == nil {
		return nil, fmt.Errorf("attestations deshabilitadas: falta clave de firma")
	}
	tz := in.Timezone
	if tz == "" {
		tz = uc.kpiUC.defaultTZ
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, &domain.InvalidKPIConfigError{Field: "timezone", Reason: fmt.Sprintf("identificador IANA inválido: %q", tz)}
	}

	period, cutoff, err := resolvePeriod(in.Period, loc)
	if err != nil {
		return nil, err
	}

	existing, err := uc.attRepo.GetByMerchantAndPeriod(merchantID, period)
	if err != nil {
		return nil, fmt.Errorf("attestation: buscar período: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}

	resp, err := uc.kpiUC.ComputeAt(ctx, merchantID, kpi.Window30, false, tz, cutoff)
	if err != nil {
		return nil, err
	}
	result := resp.Result

	att := &entity.Attestation{
		ID:         uuid.New().String(),
		MerchantID: merchantID,
		Period:     period,
		Currency:   result.Currency,
		NetSales:   result.NetSales,
		GrossSales: result.GrossSales,
		OrderCount: result.OrderCount,
		RefundRate: result.RefundRate,
		CreatedAt:  time.Now(),
	}

	// Leer el eslabón anterior y encadenar el nuevo en la misma transacción,
	// para que dos attestations concurrentes no apunten al mismo prev_hash.
	err = uc.txRunner.Run(ctx, func(attRepo repository.AttestationRepository) error {
		prev, err := attRepo.GetLatestByMerchant(merchantID)
		if err != nil {
			return fmt.Errorf("attestation: buscar anterior: %w", err)
		}
		if prev != nil {
			att.PrevHash = prev.ContentHash
		}

		payload, hash, signature, err := uc.signer.Sign(att, result)
		if err != nil {
			return fmt.Errorf("attestation: firmar: %w", err)
		}
		att.PayloadJSON = payload
		att.ContentHash = hash
		att.Signature = signature

		if err := attRepo.Create(att); err != nil {
			return fmt.Errorf("attestation: persistir: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toAttestationResponse(att), nil
}

// List devuelve las attestations del comercio, más reciente primero.
func (uc *AttestationUseCase) List(merchantID string, page dto.PageRequest) (*dto.AttestationListResponse, error) {
	page.DefaultPage()
	atts, err := uc.attRepo.ListByMerchant(merchantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.AttestationResponse, 0, len(atts))
	for _, a := range atts {
		out = append(out, *toAttestationResponse(a))
	}
	return &dto.AttestationListResponse{
		Attestations: out,
		Page:         dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// StatementPDF renderiza el extracto PDF de una attestation del comercio.
func (uc *AttestationUseCase) StatementPDF(merchantID, attestationID string) ([]byte, error) {
	att, err := uc.attRepo.GetByID(attestationID)
	if err != nil {
		return nil, err
	}
	if att == nil {
		return nil, domain.ErrNotFound
	}
	if att.MerchantID != merchantID {
		return nil, domain.ErrForbidden
	}
	merchant, err := uc.merchantRepo.GetByID(merchantID)
	if err != nil {
		return nil, err
	}
	if merchant == nil {
		return nil, domain.ErrNotFound
	}
	return uc.statements.Generate(att, merchant)
}

// resolvePeriod valida YYYY-MM (vacío = mes anterior) y devuelve el período
// junto al instante de corte: medianoche local del primer día del mes siguiente.
func resolvePeriod(period string, loc *time.Location) (string, time.Time, error) {
	if period == "" {
		prev := time.Now().In(loc).AddDate(0, -1, 0)
		period = prev.Format("2006-01")
	}
	t, err := time.ParseInLocation("2006-01", period, loc)
	if err != nil {
		return "", time.Time{}, domain.ErrInvalidInput
	}
	cutoff := t.AddDate(0, 1, 0) // primer instante del mes siguiente
	if cutoff.After(time.Now()) {
		// No se atestan meses sin cerrar.
		return "", time.Time{}, domain.ErrInvalidInput
	}
	return period, cutoff.UTC(), nil
}

func toAttestationResponse(a *entity.Attestation) *dto.AttestationResponse {
	return &dto.AttestationResponse{
		ID:          a.ID,
		MerchantID:  a.MerchantID,
		Period:      a.Period,
		Currency:    a.Currency,
		NetSales:    a.NetSales,
		GrossSales:  a.GrossSales,
		OrderCount:  a.OrderCount,
		RefundRate:  a.RefundRate,
		ContentHash: a.ContentHash,
		Signature:   a.Signature,
		PrevHash:    a.PrevHash,
		CreatedAt:   a.CreatedAt,
	}
}
