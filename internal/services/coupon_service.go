package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"coupon-service/internal/apperror"
	"coupon-service/internal/logger"
	"coupon-service/internal/metrics"
	"coupon-service/internal/models"
	"coupon-service/internal/repository"

	"github.com/google/uuid"
)

const (
	ErrMsgCouponNotFound       = "coupon not found"
	ErrMsgCouponAlreadyDeleted = "cannot delete an already-deleted coupon"
)

// CouponService управляет жизненным циклом купонов: создание, чтение,
// мягкое удаление.
type CouponService struct {
	repo   repository.CouponRepository
	mapper CouponMapper
	log    *logger.Logger
	now    func() time.Time
}

// NewCouponService создаёт сервис купонов.
func NewCouponService(repo repository.CouponRepository, mapper CouponMapper, log *logger.Logger) *CouponService {
	if mapper == nil {
		mapper = NewCouponMapper()
	}
	return &CouponService{
		repo:   repo,
		mapper: mapper,
		log:    log,
		now:    time.Now,
	}
}

// CreateCoupon нормализует код, проверяет его длину и сохраняет активный купон.
// Нарушение уникальности кода возвращается из репозитория как конфликт.
func (s *CouponService) CreateCoupon(ctx context.Context, req *models.CreateCouponRequest) (*models.CouponResponse, error) {
	code := NormalizeCode(req.Code)
	if err := ValidateCodeLength(code); err != nil {
		metrics.CouponOperations.WithLabelValues(metrics.OperationCreate, metrics.OutcomeRejected).Inc()
		return nil, err
	}

	coupon := s.mapper.ToEntity(req, code, s.now().UTC())

	if err := s.repo.Create(ctx, coupon); err != nil {
		outcome := metrics.OutcomeError
		if apperror.Is(err, apperror.KindConflict) {
			outcome = metrics.OutcomeRejected
		}
		metrics.CouponOperations.WithLabelValues(metrics.OperationCreate, outcome).Inc()
		return nil, err
	}
	metrics.CouponOperations.WithLabelValues(metrics.OperationCreate, metrics.OutcomeSuccess).Inc()

	s.log.WithFields(map[string]interface{}{
		"coupon_id": coupon.ID,
		"code":      coupon.Code,
	}).Info("Coupon created")

	return s.mapper.ToResponse(coupon), nil
}

// GetCoupon возвращает купон по идентификатору без каких-либо изменений.
func (s *CouponService) GetCoupon(ctx context.Context, id uuid.UUID) (*models.CouponResponse, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err)
	}
	return s.mapper.ToResponse(coupon), nil
}

// DeleteCoupon помечает купон удалённым. Чтение и запись выполняются в одной
// транзакции с блокировкой строки, поэтому два конкурентных удаления не могут
// оба пройти проверку статуса.
func (s *CouponService) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	err := s.repo.WithinTx(ctx, func(tx repository.CouponRepository) error {
		coupon, err := tx.FindByIDForUpdate(ctx, id)
		if err != nil {
			return lookupError(err)
		}

		if err := coupon.MarkDeleted(s.now().UTC()); err != nil {
			if errors.Is(err, models.ErrCouponAlreadyDeleted) {
				return apperror.BusinessRule(ErrMsgCouponAlreadyDeleted, err)
			}
			return err
		}

		if err := tx.UpdateStatus(ctx, coupon); err != nil {
			return fmt.Errorf("failed to persist deleted coupon: %w", err)
		}
		return nil
	})
	if err != nil {
		outcome := metrics.OutcomeError
		if apperror.Is(err, apperror.KindBusinessRule) || apperror.Is(err, apperror.KindNotFound) {
			outcome = metrics.OutcomeRejected
		}
		metrics.CouponOperations.WithLabelValues(metrics.OperationDelete, outcome).Inc()
		return err
	}
	metrics.CouponOperations.WithLabelValues(metrics.OperationDelete, metrics.OutcomeSuccess).Inc()

	s.log.WithField("coupon_id", id).Info("Coupon soft-deleted")
	return nil
}

// ListCoupons возвращает страницу купонов, новые первыми.
func (s *CouponService) ListCoupons(ctx context.Context, filter models.ListCouponsFilter) ([]*models.CouponResponse, error) {
	coupons, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]*models.CouponResponse, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, s.mapper.ToResponse(c))
	}
	return out, nil
}

func lookupError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperror.NotFound(ErrMsgCouponNotFound, err)
	}
	return err
}
