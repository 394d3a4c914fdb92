package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/alanbarret/wallet-attendance-system/core"
	"github.com/alanbarret/wallet-attendance-system/ports"
	"github.com/alanbarret/wallet-attendance-system/service"
)

const qrImageSize = 300

// Handlers holds the HTTP handlers and their collaborators.
type Handlers struct {
	svc       *service.AttendanceService
	registrar ports.Registrar
	opts      Options
	logger    *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(svc *service.AttendanceService, registrar ports.Registrar, opts Options, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, registrar: registrar, opts: opts, logger: logger}
}

// MarkAttendance is the single write entry point: it hands the request to
// the core and translates the outcome into the response shape the scanning
// client expects. The "Confirm check-out" and "Already checked out today"
// message strings are part of that client contract.
func (h *Handlers) MarkAttendance(c *gin.Context) {
	var req core.AttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required data"})
		return
	}
	if req.EmployeeKey == "" || req.EmployeeSignature == "" || req.Token.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Missing required data"})
		return
	}

	outcome, err := h.svc.VerifyAndRecord(c.Request.Context(), req, time.Now())
	if err != nil {
		status, message := verificationFailure(err)
		c.JSON(status, gin.H{"success": false, "message": message})
		return
	}

	switch outcome.Kind {
	case core.OutcomeCheckInSuccess:
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       "Check-in successful",
			"action":        "check-in",
			"employee_name": outcome.EmployeeName,
			"in_time":       outcome.InTime,
			"status":        outcome.Status,
		})
	case core.OutcomeConfirmCheckoutRequired:
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"message":       "Confirm check-out",
			"employee_name": outcome.EmployeeName,
			"in_time":       outcome.InTime,
			"out_time":      outcome.OutTime,
			"status":        outcome.Status,
		})
	case core.OutcomeCheckOutSuccess:
		c.JSON(http.StatusOK, gin.H{
			"success":       true,
			"message":       "Check-out successful",
			"action":        "check-out",
			"employee_name": outcome.EmployeeName,
			"in_time":       outcome.InTime,
			"out_time":      outcome.OutTime,
			"status":        outcome.Status,
		})
	case core.OutcomeAlreadyCheckedOut:
		c.JSON(http.StatusOK, gin.H{
			"success":       false,
			"message":       "Already checked out today",
			"employee_name": outcome.EmployeeName,
			"in_time":       outcome.InTime,
			"out_time":      outcome.OutTime,
			"status":        outcome.Status,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Unexpected outcome"})
	}
}

// verificationFailure maps the core error taxonomy to status codes and the
// client-facing messages.
func verificationFailure(err error) (int, string) {
	var expired *core.TokenExpiredError
	switch {
	case errors.As(err, &expired):
		return http.StatusUnauthorized, fmt.Sprintf("QR code expired (age: %ds)", expired.Age)
	case errors.Is(err, core.ErrInvalidServerSignature):
		return http.StatusUnauthorized, "Invalid QR code signature"
	case errors.Is(err, core.ErrInvalidEmployeeSignature):
		return http.StatusUnauthorized, "Invalid employee signature"
	case errors.Is(err, core.ErrUnknownEmployee):
		return http.StatusForbidden, "Employee not registered or invalid key"
	case errors.Is(err, core.ErrReplayDetected):
		return http.StatusConflict, "QR code already used recently"
	default:
		return http.StatusInternalServerError, "Attendance could not be recorded"
	}
}

// ListAttendance returns the committed records with derived worked hours.
func (h *Handlers) ListAttendance(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"records": h.svc.Report(c.Request.Context()),
	})
}

// RegisterEmployee creates an employee and returns the generated key pair.
// The private key appears in this response and nowhere else.
func (h *Handlers) RegisterEmployee(c *gin.Context) {
	var req struct {
		EmpID      string `json:"emp_id" binding:"required"`
		Name       string `json:"name" binding:"required"`
		Email      string `json:"email"`
		Department string `json:"department"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Employee ID and Name are required"})
		return
	}

	emp, privateKey, err := h.registrar.Register(c.Request.Context(), core.Employee{
		ID:         req.EmpID,
		Name:       req.Name,
		Email:      req.Email,
		Department: req.Department,
	})
	if err != nil {
		if errors.Is(err, core.ErrEmployeeExists) {
			c.JSON(http.StatusConflict, gin.H{"success": false, "message": fmt.Sprintf("Employee %s already registered", req.EmpID)})
			return
		}
		h.logger.Error("registration failed", zap.String("emp_id", req.EmpID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Registration failed"})
		return
	}

	h.logger.Info("employee registered", zap.String("emp_id", emp.ID), zap.String("name", emp.Name))
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     fmt.Sprintf("Employee %s registered successfully", emp.Name),
		"emp_id":      emp.ID,
		"public_key":  emp.PublicKey,
		"private_key": privateKey,
	})
}

// ListEmployees returns the registered employees (public keys only).
func (h *Handlers) ListEmployees(c *gin.Context) {
	emps, err := h.registrar.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to list employees"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "employees": emps})
}

// QRImage renders the current token as a PNG. The payload is the token's
// JSON form, which the scanning client parses and counter-signs.
func (h *Handlers) QRImage(c *gin.Context) {
	token, err := h.svc.IssueCurrentToken(time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to issue token"})
		return
	}

	payload, err := tokenJSON(token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to encode token"})
		return
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to render QR code"})
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

func tokenJSON(t core.Token) (string, error) {
	raw, err := json.Marshal(t)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Home renders the rotating QR display page.
func (h *Handlers) Home(c *gin.Context) {
	token, err := h.svc.IssueCurrentToken(time.Now())
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to issue token")
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"PublicKey":   h.svc.ServerPublicKey(),
		"Interval":    h.opts.RotationIntervalSeconds,
		"GracePeriod": h.opts.GracePeriodSeconds,
		"TimeSlot":    time.Unix(token.IssuedAt, 0).Format("2006-01-02 15:04:05"),
	})
}

// ScanPage renders the scanner page.
func (h *Handlers) ScanPage(c *gin.Context) {
	c.HTML(http.StatusOK, "scan.html", nil)
}

// AttendancePage renders the records table page.
func (h *Handlers) AttendancePage(c *gin.Context) {
	c.HTML(http.StatusOK, "attendance.html", nil)
}

// RegisterPage renders the registration form. The page itself is public;
// the registration API behind it requires the operator token whenever an
// admin password is configured.
func (h *Handlers) RegisterPage(c *gin.Context) {
	c.HTML(http.StatusOK, "register.html", gin.H{
		"AuthRequired": h.opts.AdminPassword != "",
	})
}
