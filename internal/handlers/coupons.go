package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"coupon-service/internal/apperror"
	"coupon-service/internal/logger"
	"coupon-service/internal/metrics"
	"coupon-service/internal/models"

	"github.com/go-chi/chi/v5"
)

const maxRequestBodyBytes = 1 << 20

// CouponHandler обслуживает REST ресурс /coupon
type CouponHandler struct {
	couponService CouponService
	producer      EventProducer
	log           *logger.Logger
	now           func() time.Time
}

// NewCouponHandler создает обработчик купонов. producer может быть nil,
// тогда события не публикуются.
func NewCouponHandler(couponService CouponService, producer EventProducer, log *logger.Logger) *CouponHandler {
	return &CouponHandler{
		couponService: couponService,
		producer:      producer,
		log:           log,
		now:           time.Now,
	}
}

// Routes монтирует маршруты купонов на chi роутер
func (h *CouponHandler) Routes(r chi.Router) {
	r.Post("/", h.CreateCoupon)
	r.Get("/", h.ListCoupons)
	r.Get("/{id}", h.GetCoupon)
	r.Delete("/{id}", h.DeleteCoupon)
}

// CreateCoupon создает купон
func (h *CouponHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	var req models.CreateCouponRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if fields := validateCreateCouponRequest(&req, h.now()); len(fields) > 0 {
		writeServiceError(w, h.log, apperror.ValidationFields(validationFailedMessage, fields), "Failed to create coupon")
		return
	}

	coupon, err := h.couponService.CreateCoupon(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to create coupon")
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishCouponCreated(coupon); err != nil {
			metrics.EventPublishErrors.WithLabelValues(string(models.EventTypeCouponCreated)).Inc()
			h.log.WithError(err).WithField("coupon_id", coupon.ID).Error("Failed to publish coupon created event")
		}
	}

	w.Header().Set("Location", "/coupon/"+coupon.ID.String())
	writeJSONResponse(w, http.StatusCreated, coupon)
}

// GetCoupon возвращает купон по ID
func (h *CouponHandler) GetCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	coupon, err := h.couponService.GetCoupon(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get coupon")
		return
	}

	writeJSONResponse(w, http.StatusOK, coupon)
}

// DeleteCoupon мягко удаляет купон
func (h *CouponHandler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid coupon ID")
		return
	}

	if err := h.couponService.DeleteCoupon(r.Context(), id); err != nil {
		writeServiceError(w, h.log, err, "Failed to delete coupon")
		return
	}

	if h.producer != nil {
		if err := h.producer.PublishCouponDeleted(id); err != nil {
			metrics.EventPublishErrors.WithLabelValues(string(models.EventTypeCouponDeleted)).Inc()
			h.log.WithError(err).WithField("coupon_id", id).Error("Failed to publish coupon deleted event")
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListCoupons возвращает список купонов с фильтром по статусу и пагинацией
func (h *CouponHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var filter models.ListCouponsFilter

	if raw := query.Get("status"); raw != "" {
		status, ok := models.ParseCouponStatus(raw)
		if !ok {
			writeProblem(w, http.StatusBadRequest, validationFailedMessage, []apperror.FieldError{
				{Field: "status", Message: "status must be ACTIVE or DELETED"},
			})
			return
		}
		filter.Status = &status
	}

	limit, ok := parseNonNegativeInt(query.Get("limit"), 0)
	if !ok {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	offset, ok := parseNonNegativeInt(query.Get("offset"), 0)
	if !ok {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid offset")
		return
	}
	filter.Limit = limit
	filter.Offset = offset

	coupons, err := h.couponService.ListCoupons(r.Context(), filter)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to list coupons")
		return
	}

	writeJSONResponse(w, http.StatusOK, coupons)
}
