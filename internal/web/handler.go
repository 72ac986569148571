// Package web serves the HTML surface: the login page and the three role
// dashboards. Pages talk to the same services as the JSON endpoints.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinicdesk/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk/internal/domain/registration"
	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
)

//go:embed templates/*.html
var templatesFS embed.FS

var templates = template.Must(template.ParseFS(templatesFS, "templates/*.html"))

var dashboardPaths = map[string]string{
	auth.RoleReceptionist: "/receptionist_dashboard",
	auth.RoleDoctor:       "/doctor_dashboard",
	auth.RolePharmacist:   "/pharmacist_dashboard",
}

type Handler struct {
	registration *registration.Service
	sessions     *auth.SessionManager
	credentials  auth.CredentialStore
	logger       zerolog.Logger
}

func NewHandler(reg *registration.Service, sessions *auth.SessionManager, credentials auth.CredentialStore, logger zerolog.Logger) *Handler {
	return &Handler{
		registration: reg,
		sessions:     sessions,
		credentials:  credentials,
		logger:       logger,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.LoginPage)
	e.POST("/", h.Login)
	e.GET("/logout", h.Logout)

	e.GET("/receptionist_dashboard", h.ReceptionistDashboard, auth.RequirePageRole(auth.RoleReceptionist))
	e.POST("/receptionist_dashboard", h.ReceptionistBook, auth.RequirePageRole(auth.RoleReceptionist))
	e.GET("/doctor_dashboard", h.DoctorDashboard, auth.RequirePageRole(auth.RoleDoctor))
	e.GET("/pharmacist_dashboard", h.PharmacistDashboard, auth.RequirePageRole(auth.RolePharmacist))
}

type loginData struct {
	Error string
}

type dashboardData struct {
	Username        string
	Visits          []*registration.VisitView
	BookingTypes    []string
	CourierChannels []string
	Today           string
	Error           string
	Message         string
}

func (h *Handler) render(c echo.Context, status int, name string, data interface{}) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("template render failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	return c.HTMLBlob(status, buf.Bytes())
}

// LoginPage shows the login form; signed-in visitors go straight to their
// dashboard.
func (h *Handler) LoginPage(c echo.Context) error {
	if role, _ := c.Get("session_role").(string); role != "" {
		if path, ok := dashboardPaths[role]; ok {
			return c.Redirect(http.StatusFound, path)
		}
	}
	return h.render(c, http.StatusOK, "login.html", loginData{})
}

func (h *Handler) Login(c echo.Context) error {
	username := c.FormValue("username")
	password := c.FormValue("password")

	user, err := h.credentials.Authenticate(c.Request().Context(), username, password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return h.render(c, http.StatusUnauthorized, "login.html", loginData{Error: "Invalid username or password"})
		}
		h.logger.Error().Err(err).Msg("login failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	token, err := h.sessions.Issue(user.Username, user.Role)
	if err != nil {
		h.logger.Error().Err(err).Msg("session issue failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	auth.WriteCookie(c, token, h.sessions.TTL())

	path, ok := dashboardPaths[user.Role]
	if !ok {
		path = "/"
	}
	return c.Redirect(http.StatusFound, path)
}

func (h *Handler) Logout(c echo.Context) error {
	auth.ClearCookie(c)
	return c.Redirect(http.StatusFound, "/")
}

func (h *Handler) ReceptionistDashboard(c echo.Context) error {
	return h.renderReceptionist(c, http.StatusOK, "", "")
}

// ReceptionistBook handles the in-page booking form with the same rules as
// POST /book_appointment.
func (h *Handler) ReceptionistBook(c echo.Context) error {
	age, err := strconv.Atoi(c.FormValue("age"))
	if err != nil {
		return h.renderReceptionist(c, http.StatusBadRequest, "age must be a number", "")
	}

	req := &registration.BookingRequest{
		Name:            c.FormValue("name"),
		MobileNumber:    c.FormValue("mobile_number"),
		Age:             age,
		Address:         c.FormValue("address"),
		Reason:          c.FormValue("reason"),
		AppointmentDate: c.FormValue("appointment_date"),
		BookingType:     c.FormValue("booking_type"),
	}
	if _, err := h.registration.Book(c.Request().Context(), req); err != nil {
		return h.renderReceptionist(c, http.StatusBadRequest, err.Error(), "")
	}
	return h.renderReceptionist(c, http.StatusOK, "", "Appointment booked for "+req.AppointmentDate)
}

func (h *Handler) renderReceptionist(c echo.Context, status int, errMsg, message string) error {
	visits, err := h.registration.ListVisits(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list visits failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	username, _ := c.Get("session_user").(string)
	return h.render(c, status, "receptionist.html", dashboardData{
		Username:        username,
		Visits:          visits,
		BookingTypes:    []string{registration.BookingOnlineDirect, registration.BookingOnlineManual, registration.BookingManualInClinic},
		CourierChannels: billing.CourierChannels,
		Today:           time.Now().Format("2006-01-02"),
		Error:           errMsg,
		Message:         message,
	})
}

func (h *Handler) DoctorDashboard(c echo.Context) error {
	visits, err := h.registration.ListVisits(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list visits failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
	username, _ := c.Get("session_user").(string)
	return h.render(c, http.StatusOK, "doctor.html", dashboardData{Username: username, Visits: visits})
}

// PharmacistDashboard lists only visits with a prescription to prepare.
func (h *Handler) PharmacistDashboard(c echo.Context) error {
	visits, err := h.registration.ListVisits(c.Request().Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list visits failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	prescribed := visits[:0:0]
	for _, v := range visits {
		if v.MedicinesPrescribed {
			prescribed = append(prescribed, v)
		}
	}
	username, _ := c.Get("session_user").(string)
	return h.render(c, http.StatusOK, "pharmacist.html", dashboardData{Username: username, Visits: prescribed})
}
