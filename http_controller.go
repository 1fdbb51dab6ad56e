package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// LoginService is what the controller needs from the Authenticator
type LoginService interface {
	Login(ctx context.Context, username, password string, remember bool) (*LoginResult, error)
	Register(ctx context.Context, username, password string) (*User, error)
}

// RegisterAuthRoutes mounts the login, logout and register handlers on app
func RegisterAuthRoutes[T any](app router.Router[T], opts ...ControllerOption) *Controller {
	controller := NewController(opts...)

	app.Post(controller.Routes.Login, controller.LoginPost).SetName("sign-in.post")
	app.Get(controller.Routes.Logout, controller.Logout).SetName("sign-out.get")
	app.Post(controller.Routes.Logout, controller.Logout).SetName("sign-out.post")
	app.Post(controller.Routes.Register, controller.RegisterPost).SetName("register.post")

	return controller
}

// errBadForm answers 400 through the error handler
func errBadForm(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse form").
		WithCode(goerrors.CodeBadRequest)
}

type ControllerRoutes struct {
	Login      string
	Logout     string
	Register   string
	AfterLogin string
}

type Controller struct {
	Debug        bool
	CookieSecure bool
	Logger       Logger
	Service      LoginService
	Routes       *ControllerRoutes
	Now          func() time.Time
}

type ControllerOption func(*Controller) *Controller

// WithLoginService sets the service used to check credentials
func WithLoginService(svc LoginService) ControllerOption {
	return func(c *Controller) *Controller {
		c.Service = svc
		return c
	}
}

// WithControllerLogger sets the controller logger
func WithControllerLogger(logger Logger) ControllerOption {
	return func(c *Controller) *Controller {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

// WithSecureCookies marks issued cookies Secure
func WithSecureCookies(secure bool) ControllerOption {
	return func(c *Controller) *Controller {
		c.CookieSecure = secure
		return c
	}
}

// WithRoutes overrides the default paths, empty fields keep their default
func WithRoutes(routes ControllerRoutes) ControllerOption {
	return func(c *Controller) *Controller {
		if routes.Login != "" {
			c.Routes.Login = routes.Login
		}
		if routes.Logout != "" {
			c.Routes.Logout = routes.Logout
		}
		if routes.Register != "" {
			c.Routes.Register = routes.Register
		}
		if routes.AfterLogin != "" {
			c.Routes.AfterLogin = routes.AfterLogin
		}
		return c
	}
}

func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		Logger: defLogger{},
		Now:    time.Now,
		Routes: &ControllerRoutes{
			Login:      "/login",
			Logout:     "/logout",
			Register:   "/register",
			AfterLogin: "/",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Service == nil {
		panic("Missing LoginService in auth controller...")
	}

	return c
}

// LoginRequest payload
type LoginRequest struct {
	Username   string `form:"username" json:"username"`
	Password   string `form:"password" json:"password"`
	RememberMe bool   `form:"remember_me" json:"remember_me"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 200)),
	)
}

// LoginPost checks the posted credentials and sets the auth cookie
func (a *Controller) LoginPost(c router.Context) error {
	payload := new(LoginRequest)

	if err := c.Bind(payload); err != nil {
		a.Logger.Warn("login parse payload", "error", err)
		return errBadForm(err)
	}

	if err := payload.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	if a.Debug {
		a.Logger.Debug("login attempt", "username", payload.Username, "remember", payload.RememberMe)
	}

	res, err := a.Service.Login(c.Context(), payload.Username, payload.Password, payload.RememberMe)
	if err != nil {
		var richErr *goerrors.Error
		if !IsInternal(err) && goerrors.As(err, &richErr) && richErr.Code != 0 {
			return c.JSON(richErr.Code, router.ViewContext{
				"errors": map[string]string{"authentication": richErr.Message},
			})
		}
		return err
	}

	c.Cookie(NewCookie(CookieAuth, res.Token, res.Remember, a.CookieSecure, a.Now()))

	return c.Redirect(a.redirectTarget(c), router.StatusSeeOther)
}

type logoutRecorder interface {
	Logout(ctx context.Context, claims *SessionClaims)
}

// Logout drops the auth cookie
func (a *Controller) Logout(c router.Context) error {
	if rec, ok := a.Service.(logoutRecorder); ok {
		if claims, found := SessionFrom(c); found {
			rec.Logout(c.Context(), claims)
		}
	}
	c.Cookie(ExpireCookie(CookieAuth, a.CookieSecure))
	return c.Redirect("/", router.StatusSeeOther)
}

// RegistrationPayload is the form payload
type RegistrationPayload struct {
	Username        string `form:"username" json:"username"`
	Password        string `form:"password" json:"password"`
	ConfirmPassword string `form:"confirm_password" json:"confirm_password"`
}

// Validate will validate the payload
func (r RegistrationPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(3, 64), is.PrintableASCII),
		validation.Field(&r.Password, validation.Required, validation.Length(10, 100)),
		validation.Field(
			&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

// RegisterPost creates an account and sends the user to the login page
func (a *Controller) RegisterPost(c router.Context) error {
	payload := new(RegistrationPayload)

	if err := c.Bind(payload); err != nil {
		a.Logger.Warn("register parse payload", "error", err)
		return errBadForm(err)
	}

	if err := payload.Validate(); err != nil {
		return c.JSON(http.StatusUnprocessableEntity, router.ViewContext{
			"validation": FormatValidationErrorToMap(err),
		})
	}

	user, err := a.Service.Register(c.Context(), payload.Username, payload.Password)
	if errors.Is(err, ErrUsernameTaken) {
		return c.JSON(ErrUsernameTaken.Code, router.ViewContext{
			"validation": map[string]string{"username": ErrUsernameTaken.Message},
		})
	}
	if err != nil {
		return err
	}

	if a.Debug {
		a.Logger.Debug("registered user", "user", print.MaybePrettyJSON(user))
	}

	return c.Redirect(a.Routes.Login, router.StatusSeeOther)
}

// redirectTarget honours a local ?next= path, anything else goes to the
// default landing page
func (a *Controller) redirectTarget(c router.Context) string {
	next := c.Query("next", "")
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.Contains(next, "\\") {
		return next
	}
	return a.Routes.AfterLogin
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return ErrPasswordMismatch
		}
		return nil
	}
}

// FormatValidationErrorToMap flattens ozzo errors into field -> message
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field, ferr := range verrs {
			if ferr != nil {
				out[field] = Message(ferr)
			}
		}
		return out
	}

	if err != nil {
		out["form"] = Message(err)
	}
	return out
}
