package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wattend/internal/attendance"
	"wattend/internal/auth"
	"wattend/internal/identity"
)

// AttendanceService is the mark/query/summary/export surface.
type AttendanceService interface {
	Mark(ctx context.Context, rfid string, ts time.Time) (attendance.Record, string, error)
	List(ctx context.Context, f attendance.Filter) ([]attendance.Record, error)
	Summarize(ctx context.Context, f attendance.Filter) (attendance.Summary, error)
	ExportCSV(ctx context.Context, f attendance.Filter) ([]byte, error)
}

// Directory is the student/staff registration surface.
type Directory interface {
	CreateStudent(ctx context.Context, st *identity.Student) error
	ListStudents(ctx context.Context) ([]identity.Student, error)
	CreateStaff(ctx context.Context, s *identity.Staff) error
	ListStaff(ctx context.Context) ([]identity.Staff, error)
}

// AuthService is the register/login surface.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) error
	Login(ctx context.Context, email, password string) (string, auth.User, error)
}

// Handler holds the injected services behind the HTTP routes.
type Handler struct {
	att  AttendanceService
	dir  Directory
	auth AuthService
	log  *zap.Logger
}

// New creates a handler.
func New(att AttendanceService, dir Directory, authSvc AuthService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{att: att, dir: dir, auth: authSvc, log: log}
}

// ---------- Attendance ----------

type markRequest struct {
	RFID      string `json:"rfid" binding:"required"`
	Timestamp string `json:"timestamp" binding:"required"`
}

// MarkAttendance handles a badge scan posted by an RFID device.
func (h *Handler) MarkAttendance(c *gin.Context) {
	var req markRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rfid and timestamp required"})
		return
	}
	ts, err := attendance.ParseTimestamp(req.Timestamp)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rec, msg, err := h.att.Mark(c.Request.Context(), req.RFID, ts)
	if err != nil {
		if errors.Is(err, attendance.ErrBadgeNotRegistered) {
			c.JSON(http.StatusNotFound, gin.H{"error": "RFID not registered"})
			return
		}
		h.log.Error("mark attendance failed", zap.String("rfid", req.RFID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": msg, "attendance": rec})
}

// ListAttendance returns records matching the query filters, newest
// day first.
func (h *Handler) ListAttendance(c *gin.Context) {
	f, err := parseFilter(c, true)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	records, err := h.att.List(c.Request.Context(), f)
	if err != nil {
		h.log.Error("list attendance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if records == nil {
		records = []attendance.Record{}
	}
	c.JSON(http.StatusOK, records)
}

// SummarizeAttendance returns status counts and the present percentage.
func (h *Handler) SummarizeAttendance(c *gin.Context) {
	f, err := parseFilter(c, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sum, err := h.att.Summarize(c.Request.Context(), f)
	if err != nil {
		h.log.Error("summarize attendance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sum)
}

// ExportAttendance serves the filtered records as a CSV attachment.
func (h *Handler) ExportAttendance(c *gin.Context) {
	f, err := parseFilter(c, false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, err := h.att.ExportCSV(c.Request.Context(), f)
	if err != nil {
		if errors.Is(err, attendance.ErrNoRecords) {
			c.JSON(http.StatusNotFound, gin.H{"msg": "No records to export"})
			return
		}
		h.log.Error("export attendance failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="attendance_export.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// parseFilter reads the common query parameters. className/status are
// only honored on the list route.
func parseFilter(c *gin.Context, withClassStatus bool) (attendance.Filter, error) {
	f := attendance.Filter{Role: c.Query("role")}
	if withClassStatus {
		f.ClassName = c.Query("className")
		f.Status = c.Query("status")
	}
	if v := c.Query("from"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			return attendance.Filter{}, err
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDay(v)
		if err != nil {
			return attendance.Filter{}, err
		}
		f.To = &t
	}
	return f, nil
}

func parseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, errors.New("invalid date " + s + " (want YYYY-MM-DD)")
	}
	return t, nil
}

// ---------- Directory ----------

type studentRequest struct {
	Name      string `json:"name" binding:"required"`
	StudentID string `json:"studentId" binding:"required"`
	ClassName string `json:"className" binding:"required"`
	RFID      string `json:"rfid" binding:"required"`
}

// CreateStudent registers a student and their badge.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req studentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	st := identity.Student{Name: req.Name, StudentID: req.StudentID, ClassName: req.ClassName, RFID: req.RFID}
	if err := h.dir.CreateStudent(c.Request.Context(), &st); err != nil {
		h.log.Error("create student failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Student created", "student": st})
}

// ListStudents returns all students ordered by name.
func (h *Handler) ListStudents(c *gin.Context) {
	students, err := h.dir.ListStudents(c.Request.Context())
	if err != nil {
		h.log.Error("list students failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, students)
}

type staffRequest struct {
	Name       string  `json:"name" binding:"required"`
	StaffID    string  `json:"staffId" binding:"required"`
	Department *string `json:"department"`
	RFID       string  `json:"rfid" binding:"required"`
}

// CreateStaff registers a staff member and their badge.
func (h *Handler) CreateStaff(c *gin.Context) {
	var req staffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s := identity.Staff{Name: req.Name, StaffID: req.StaffID, Department: req.Department, RFID: req.RFID}
	if err := h.dir.CreateStaff(c.Request.Context(), &s); err != nil {
		h.log.Error("create staff failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "Staff created", "staff": s})
}

// ListStaff returns all staff ordered by name.
func (h *Handler) ListStaff(c *gin.Context) {
	staff, err := h.dir.ListStaff(c.Request.Context())
	if err != nil {
		h.log.Error("list staff failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, staff)
}

// ---------- Auth ----------

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a dashboard login account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password); err != nil {
		if errors.Is(err, auth.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"msg": "User already exists"})
			return
		}
		h.log.Error("register failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "User registered successfully"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login verifies credentials and returns a bearer token.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	token, user, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUnknownEmail):
			c.JSON(http.StatusBadRequest, gin.H{"msg": "User does not exist"})
		case errors.Is(err, auth.ErrInvalidCredentials):
			c.JSON(http.StatusBadRequest, gin.H{"msg": "Invalid credentials"})
		default:
			h.log.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server error"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": user.ID, "name": user.Name, "email": user.Email},
	})
}

// Logout is a stateless acknowledgement; the client discards its token.
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"msg": "Logged out successfully"})
}
