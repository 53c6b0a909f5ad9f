package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/Kardex-api/internal/application/dto"
	"github.com/jhoicas/Kardex-api/internal/domain"
	"github.com/jhoicas/Kardex-api/internal/domain/entity"
	"github.com/jhoicas/Kardex-api/internal/domain/repository"
)

// conflictRetries reintentos ante ErrConflict antes de devolverlo al caller.
// Con el candado por producto el conflicto solo aparece si alguien muta el
// almacenamiento por fuera del ledger.
const conflictRetries = 3

// Service es el núcleo del kardex: registra movimientos y mantiene el stock
// cacheado de cada producto consistente con su historial.
//
// Protocolo de mutación: por producto se serializa leer stock → validar →
// insertar movimiento → actualizar stock (candado por productID); dentro de la
// transacción la escritura del stock es un compare-and-swap contra el
// StockBefore leído, de modo que un update perdido se detecta como
// domain.ErrConflict y se reintenta acotado.
type Service struct {
	txRunner     TxRunner
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository
	policy       AuthorizationPolicy

	locks sync.Map // productID -> *sync.Mutex
}

// NewService construye el servicio de ledger.
func NewService(
	txRunner TxRunner,
	productRepo repository.ProductRepository,
	movementRepo repository.StockMovementRepository,
	policy AuthorizationPolicy,
) *Service {
	return &Service{
		txRunner:     txRunner,
		productRepo:  productRepo,
		movementRepo: movementRepo,
		policy:       policy,
	}
}

// lockProduct toma el candado del producto y devuelve su unlock.
// Los movimientos de productos distintos avanzan en paralelo sin contención.
func (s *Service) lockProduct(productID string) func() {
	v, _ := s.locks.LoadOrStore(productID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// RecordMovement registra un movimiento tipado (ENTRADA, SALIDA o CORRECCION)
// y actualiza el stock cacheado en la misma transacción.
//
// Reglas de signo: ENTRADA exige cantidad > 0, SALIDA cantidad < 0,
// CORRECCION cualquier signo distinto de cero. AJUSTE_INICIAL solo lo genera
// CreateProduct. Un movimiento que dejaría el stock negativo se rechaza con
// domain.ErrInvalidMovement sin registrar nada.
func (s *Service) RecordMovement(ctx context.Context, actor entity.Actor, in dto.RecordMovementRequest) (*entity.StockMovement, error) {
	if !s.policy.HasWriteCapability(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Type == entity.MovementTypeAjusteInicial || !entity.ValidMovementType(in.Type) {
		return nil, domain.ErrInvalidMovement
	}
	return s.mutate(ctx, actor, in.ProductID, in.Reason, func(p *entity.Product) (string, int64, error) {
		switch in.Type {
		case entity.MovementTypeEntrada:
			if in.Quantity <= 0 {
				return "", 0, domain.ErrInvalidMovement
			}
		case entity.MovementTypeSalida:
			if in.Quantity >= 0 {
				return "", 0, domain.ErrInvalidMovement
			}
		case entity.MovementTypeCorreccion:
			if in.Quantity == 0 {
				return "", 0, domain.ErrInvalidMovement
			}
		}
		return in.Type, in.Quantity, nil
	})
}

// SetAbsoluteStock lleva el stock del producto al valor absoluto newStock,
// registrando la diferencia como CORRECCION. Es el camino que usan los flujos
// de edición de producto; nunca se sobreescribe el campo stock directamente.
// Si newStock coincide con el stock actual no hay movimiento que registrar y
// se devuelve domain.ErrInvalidMovement.
func (s *Service) SetAbsoluteStock(ctx context.Context, actor entity.Actor, productID string, newStock int64, reason string) (*entity.StockMovement, error) {
	if !s.policy.HasWriteCapability(actor) {
		return nil, domain.ErrForbidden
	}
	if newStock < 0 {
		return nil, domain.ErrInvalidMovement
	}
	return s.mutate(ctx, actor, productID, reason, func(p *entity.Product) (string, int64, error) {
		delta := newStock - p.Stock
		if delta == 0 {
			return "", 0, domain.ErrInvalidMovement
		}
		return entity.MovementTypeCorreccion, delta, nil
	})
}

// mutate ejecuta el protocolo leer → validar → insertar → actualizar bajo el
// candado del producto. plan decide tipo y delta a partir del estado actual.
func (s *Service) mutate(ctx context.Context, actor entity.Actor, productID, reason string, plan func(p *entity.Product) (string, int64, error)) (*entity.StockMovement, error) {
	unlock := s.lockProduct(productID)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		product, err := s.productRepo.GetByID(productID)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}

		movType, quantity, err := plan(product)
		if err != nil {
			return nil, err
		}
		stockBefore := product.Stock
		stockAfter := stockBefore + quantity
		if stockAfter < 0 {
			return nil, domain.ErrInvalidMovement
		}

		mov := &entity.StockMovement{
			ID:              uuid.New().String(),
			ProductID:       product.ID,
			ProductName:     product.Name,
			Type:            movType,
			QuantityChanged: quantity,
			StockBefore:     stockBefore,
			StockAfter:      stockAfter,
			MovementDate:    time.Now(),
			Reason:          reason,
			Username:        actor.Username,
		}

		err = s.txRunner.Run(ctx, func(
			movRepo repository.StockMovementRepository,
			productRepo repository.ProductRepository,
		) error {
			if err := movRepo.Create(mov); err != nil {
				return err
			}
			return productRepo.UpdateStockGuarded(product.ID, stockBefore, stockAfter)
		})
		if err == nil {
			return mov, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// GetCurrentStock devuelve el stock cacheado del producto (lectura O(1)).
func (s *Service) GetCurrentStock(ctx context.Context, productID string) (int64, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return 0, err
	}
	if product == nil {
		return 0, domain.ErrNotFound
	}
	return product.Stock, nil
}

// GetHistory devuelve los movimientos ordenados por fecha ascendente: todos si
// productID es vacío, o los de un producto. Cada llamada es una lectura fresca
// y finita, no una suscripción; el historial de un producto dado de baja sigue
// disponible.
func (s *Service) GetHistory(ctx context.Context, productID string) ([]*entity.StockMovement, error) {
	if productID == "" {
		return s.movementRepo.ListAll()
	}
	return s.movementRepo.ListByProduct(productID)
}

// CreateProduct crea el producto junto con su movimiento semilla
// AJUSTE_INICIAL (stockBefore 0, quantityChanged = stock inicial) en una sola
// transacción.
func (s *Service) CreateProduct(ctx context.Context, actor entity.Actor, in dto.CreateProductRequest) (*entity.Product, error) {
	if !s.policy.HasWriteCapability(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Name == "" || in.Stock < 0 || in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		ImageURL:    in.ImageURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	seed := &entity.StockMovement{
		ID:              uuid.New().String(),
		ProductID:       product.ID,
		ProductName:     product.Name,
		Type:            entity.MovementTypeAjusteInicial,
		QuantityChanged: in.Stock,
		StockBefore:     0,
		StockAfter:      in.Stock,
		MovementDate:    now,
		Reason:          "alta de producto",
		Username:        actor.Username,
	}
	err := s.txRunner.Run(ctx, func(
		movRepo repository.StockMovementRepository,
		productRepo repository.ProductRepository,
	) error {
		if err := productRepo.Create(product); err != nil {
			return err
		}
		return movRepo.Create(seed)
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct obtiene un producto activo por ID.
func (s *Service) GetProduct(ctx context.Context, id string) (*entity.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	return product, nil
}

// ListProducts lista los productos activos.
func (s *Service) ListProducts(ctx context.Context) ([]*entity.Product, error) {
	return s.productRepo.List()
}

// UpdateProduct actualiza los campos descriptivos del producto; un cambio de
// stock nunca escribe el campo directo, se registra como CORRECCION. Los
// campos descriptivos y el movimiento viajan en la misma transacción: si la
// corrección falla, ningún cambio queda persistido.
func (s *Service) UpdateProduct(ctx context.Context, actor entity.Actor, id string, in dto.UpdateProductRequest) (*entity.Product, error) {
	if !s.policy.HasWriteCapability(actor) {
		return nil, domain.ErrForbidden
	}
	if in.Price != nil && in.Price.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	if in.Stock != nil && *in.Stock < 0 {
		return nil, domain.ErrInvalidMovement
	}

	unlock := s.lockProduct(id)
	defer unlock()

	var lastErr error
	for attempt := 0; attempt < conflictRetries; attempt++ {
		product, err := s.productRepo.GetByID(id)
		if err != nil {
			return nil, err
		}
		if product == nil {
			return nil, domain.ErrNotFound
		}
		if in.Name != nil {
			product.Name = *in.Name
		}
		if in.Description != nil {
			product.Description = *in.Description
		}
		if in.Price != nil {
			product.Price = *in.Price
		}
		if in.ImageURL != nil {
			product.ImageURL = *in.ImageURL
		}
		product.UpdatedAt = time.Now()

		var mov *entity.StockMovement
		if in.Stock != nil && *in.Stock != product.Stock {
			reason := in.Reason
			if reason == "" {
				reason = "edición de producto"
			}
			mov = &entity.StockMovement{
				ID:              uuid.New().String(),
				ProductID:       product.ID,
				ProductName:     product.Name,
				Type:            entity.MovementTypeCorreccion,
				QuantityChanged: *in.Stock - product.Stock,
				StockBefore:     product.Stock,
				StockAfter:      *in.Stock,
				MovementDate:    product.UpdatedAt,
				Reason:          reason,
				Username:        actor.Username,
			}
		}

		err = s.txRunner.Run(ctx, func(
			movRepo repository.StockMovementRepository,
			productRepo repository.ProductRepository,
		) error {
			if err := productRepo.Update(product); err != nil {
				return err
			}
			if mov == nil {
				return nil
			}
			if err := movRepo.Create(mov); err != nil {
				return err
			}
			return productRepo.UpdateStockGuarded(product.ID, mov.StockBefore, mov.StockAfter)
		})
		if err == nil {
			if mov != nil {
				product.Stock = mov.StockAfter
			}
			return product, nil
		}
		if !errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// DeleteProduct da de baja el producto (soft delete). Su historial sigue
// disponible vía GetHistory, pero toda referencia posterior al productID en
// una mutación falla con domain.ErrNotFound.
func (s *Service) DeleteProduct(ctx context.Context, actor entity.Actor, id string) error {
	if !s.policy.HasWriteCapability(actor) {
		return domain.ErrForbidden
	}
	unlock := s.lockProduct(id)
	defer unlock()

	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return domain.ErrNotFound
	}
	return s.productRepo.SoftDelete(id)
}
