package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/fondea-api/internal/application/dto"
	"github.com/tu-usuario/fondea-api/internal/domain"
	"github.com/tu-usuario/fondea-api/internal/domain/entity"
	"github.com/tu-usuario/fondea-api/internal/domain/repository"
)

// ConnectionUseCase alta, listado y baja de conexiones de proveedores.
type ConnectionUseCase struct {
	connRepo repository.ConnectionRepository
}

// NewConnectionUseCase construye el caso de uso.
func NewConnectionUseCase(connRepo repository.ConnectionRepository) *ConnectionUseCase {
	return &ConnectionUseCase{connRepo: connRepo}
}

// Create registra el material de credencial de un proveedor para el comercio.
func (uc *ConnectionUseCase) Create(merchantID string, in dto.CreateConnectionRequest) (*dto.ConnectionResponse, error) {
	if !entity.IsKnownProvider(in.Provider) {
		return nil, domain.ErrInvalidInput
	}
	env := in.Environment
	if env == "" {
		env = "production"
	}
	now := time.Now()
	conn := &entity.Connection{
		ID:          uuid.New().String(),
		MerchantID:  merchantID,
		Provider:    in.Provider,
		AccessToken: in.AccessToken,
		APISecret:   in.APISecret,
		ShopDomain:  in.ShopDomain,
		ExternalID:  in.ExternalID,
		Environment: env,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.connRepo.Create(conn); err != nil {
		return nil, err
	}
	return toConnectionResponse(conn), nil
}

// List devuelve las conexiones del comercio, paginadas.
func (uc *ConnectionUseCase) List(merchantID string, page dto.PageRequest) (*dto.ConnectionListResponse, error) {
	page.DefaultPage()
	conns, err := uc.connRepo.ListByMerchant(merchantID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConnectionResponse, 0, len(conns))
	for _, c := range conns {
		out = append(out, *toConnectionResponse(c))
	}
	return &dto.ConnectionListResponse{
		Connections: out,
		Page:        dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// Deactivate da de baja la conexión; valida que pertenezca al comercio.
func (uc *ConnectionUseCase) Deactivate(merchantID, connectionID string) error {
	conn, err := uc.connRepo.GetByID(connectionID)
	if err != nil {
		return err
	}
	if conn == nil {
		return domain.ErrNotFound
	}
	if conn.MerchantID != merchantID {
		return domain.ErrForbidden
	}
	return uc.connRepo.Deactivate(connectionID)
}

func toConnectionResponse(c *entity.Connection) *dto.ConnectionResponse {
	hint := c.AccessToken
	if len(hint) > 4 {
		hint = hint[len(hint)-4:]
	}
	return &dto.ConnectionResponse{
		ID:          c.ID,
		Provider:    c.Provider,
		ShopDomain:  c.ShopDomain,
		ExternalID:  c.ExternalID,
		Environment: c.Environment,
		TokenHint:   hint,
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
	}
}
