package auth

import (
	"errors"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/nyaruka/phonenumbers"
)

// defaultPhoneRegion is assumed for phone numbers without a country prefix.
const defaultPhoneRegion = "US"

type AuthControllerRoutes struct {
	Register             string
	Login                string
	PasswordResetRequest string
	PasswordReset        string
	VerifyEmail          string
	VerifyEmailAlias     string
}

type AuthController struct {
	Debug    bool
	Logger   Logger
	Repo     RepositoryManager
	Auther   Authenticator
	Notifier Notifier
	Config   Config
	Routes   *AuthControllerRoutes
}

type AuthControllerOption func(*AuthController) *AuthController

func NewAuthController(opts ...AuthControllerOption) *AuthController {
	c := &AuthController{
		Logger: defLogger{},
		Routes: &AuthControllerRoutes{
			Register:             "/register",
			Login:                "/login",
			PasswordResetRequest: "/reset-password-request",
			PasswordReset:        "/reset-password",
			VerifyEmail:          "/verify-email",
			VerifyEmailAlias:     "/verify",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Repo == nil {
		panic("Missing RepositoryManager in auth controller...")
	}

	if c.Auther == nil {
		panic("Missing Authenticator in auth controller...")
	}

	if c.Notifier == nil {
		panic("Missing Notifier in auth controller...")
	}

	return c
}

func WithControllerRepo(repo RepositoryManager) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Repo = repo
		return c
	}
}

func WithControllerAuther(auther Authenticator) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Auther = auther
		return c
	}
}

func WithControllerNotifier(notifier Notifier) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Notifier = notifier
		return c
	}
}

func WithControllerConfig(cfg Config) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Config = cfg
		return c
	}
}

func WithControllerLogger(logger Logger) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithControllerDebug(debug bool) AuthControllerOption {
	return func(c *AuthController) *AuthController {
		c.Debug = debug
		return c
	}
}

// RegisterAuthRoutes mounts the public credential-lifecycle routes.
func RegisterAuthRoutes(app *fiber.App, controller *AuthController) {
	app.Post(controller.Routes.Register, controller.RegistrationCreate)
	app.Post(controller.Routes.Login, controller.LoginPost)
	app.Post(controller.Routes.PasswordResetRequest, controller.PasswordResetRequest)
	app.Post(controller.Routes.PasswordReset, controller.PasswordResetExecute)
	app.Get(controller.Routes.VerifyEmail, controller.VerifyEmail)
	app.Get(controller.Routes.VerifyEmailAlias, controller.VerifyEmail)
}

// RegistrationCreatePayload is the registration body
type RegistrationCreatePayload struct {
	FirstName       string `json:"firstName" form:"firstName"`
	LastName        string `json:"lastName" form:"lastName"`
	Username        string `json:"username" form:"username"`
	Email           string `json:"email" form:"email"`
	Phone           string `json:"phone" form:"phone"`
	BusinessName    string `json:"businessName" form:"businessName"`
	AccountType     string `json:"accountType" form:"accountType"`
	Password        string `json:"password" form:"password"`
	ConfirmPassword string `json:"confirmPassword" form:"confirmPassword"`
}

// Validate will validate the payload
func (r RegistrationCreatePayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FirstName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.LastName, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Username, validation.Required, validation.Length(3, 100)),
		validation.Field(&r.Email, validation.Required, validation.Length(6, 100), is.Email),
		validation.Field(&r.Phone, validation.Required, validation.By(ValidatePhoneNumber(defaultPhoneRegion))),
		validation.Field(&r.AccountType, validation.Required, validation.In(
			string(AccountTypeIndividual),
			string(AccountTypeBusiness),
		)),
		validation.Field(&r.Password, validation.Required, validation.Length(8, 100)),
		validation.Field(&r.ConfirmPassword,
			validation.Required,
			validation.By(ValidateStringEquals(r.Password)),
		),
	)
}

func (a *AuthController) RegistrationCreate(c *fiber.Ctx) error {
	payload := new(RegistrationCreatePayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("register user parse payload", "error", err)
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	// Mismatch is reported before any field validation, matching the
	// operation contract: nothing is stored either way.
	if payload.Password != payload.ConfirmPassword {
		return a.renderError(c, ErrPasswordMismatch)
	}

	if err := payload.Validate(); err != nil {
		a.Logger.Error("register user validate payload", "error", err)
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	if a.Debug {
		a.Logger.Debug("register payload: %s", print.MaybePrettyJSON(RegisterUserMessage{
			FirstName:    payload.FirstName,
			LastName:     payload.LastName,
			Username:     payload.Username,
			Email:        payload.Email,
			AccountType:  AccountType(payload.AccountType),
			BusinessName: payload.BusinessName,
		}))
	}

	req := RegisterUserMessage{
		FirstName:       payload.FirstName,
		LastName:        payload.LastName,
		Username:        payload.Username,
		Email:           payload.Email,
		Phone:           payload.Phone,
		BusinessName:    payload.BusinessName,
		AccountType:     AccountType(payload.AccountType),
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
	}

	registerUser := NewRegisterUserHandler(a.Repo, a.Notifier, a.Config).WithLogger(a.Logger)
	if err := registerUser.Execute(c.UserContext(), req); err != nil {
		a.Logger.Error("register user error", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully. Please check your email to verify your account.",
	})
}

// LoginRequest payload
type LoginRequest struct {
	Identifier string `json:"emailOrUsername" form:"emailOrUsername"`
	Password   string `json:"password" form:"password"`
}

// Validate will run validation rules
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Identifier, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

func (a *AuthController) LoginPost(c *fiber.Ctx) error {
	payload := new(LoginRequest)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("login parse payload", "error", err)
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	token, user, err := a.Auther.Login(c.UserContext(), payload.Identifier, payload.Password)
	if err != nil {
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"token": token,
		"user":  NewProfile(user),
	})
}

// PasswordResetRequestPayload holds values for password reset
type PasswordResetRequestPayload struct {
	Email string `json:"email" form:"email"`
}

// Validate will validate the payload
func (r PasswordResetRequestPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.Email),
	)
}

func (a *AuthController) PasswordResetRequest(c *fiber.Ctx) error {
	payload := new(PasswordResetRequestPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	initPwdReset := NewInitializePasswordResetHandler(a.Repo, a.Notifier, a.Config).WithLogger(a.Logger)
	if err := initPwdReset.Execute(c.UserContext(), InitializePasswordResetMessage{Email: payload.Email}); err != nil {
		a.Logger.Error("password reset initialize error", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Reset email sent",
	})
}

// PasswordResetVerifyPayload holds values for password reset
type PasswordResetVerifyPayload struct {
	Token       string `json:"token" form:"token"`
	NewPassword string `json:"newPassword" form:"newPassword"`
}

// Validate will validate the payload
func (r PasswordResetVerifyPayload) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Token, validation.Required),
		validation.Field(&r.NewPassword, validation.Required, validation.Length(8, 100)),
	)
}

func (a *AuthController) PasswordResetExecute(c *fiber.Ctx) error {
	payload := new(PasswordResetVerifyPayload)

	if err := c.BodyParser(payload); err != nil {
		a.Logger.Error("password reset parse payload", "error", err)
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to parse request body"))
	}

	if payload.Token == "" {
		payload.Token = c.Query("token")
	}

	if err := payload.Validate(); err != nil {
		return a.renderError(c, goerrors.Wrap(err, goerrors.CategoryValidation, err.Error()))
	}

	finalizePwdReset := NewFinalizePasswordResetHandler(a.Repo).WithLogger(a.Logger)
	input := FinalizePasswordResetMessage{
		Token:       payload.Token,
		NewPassword: payload.NewPassword,
	}

	if err := finalizePwdReset.Execute(c.UserContext(), input); err != nil {
		a.Logger.Error("password reset finalize error", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Password reset successful",
	})
}

func (a *AuthController) VerifyEmail(c *fiber.Ctx) error {
	token := c.Query("token")
	if token == "" {
		return a.renderError(c, goerrors.New("token is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest))
	}

	verify := NewVerifyEmailHandler(a.Repo).WithLogger(a.Logger)
	if err := verify.Execute(c.UserContext(), VerifyEmailMessage{Token: token}); err != nil {
		a.Logger.Error("email verification error", "error", err)
		return a.renderError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Email verified successfully",
	})
}

// ProfileShow returns the sanitized projection of the authenticated user. It
// sits behind the bearer-token guard, which resolves the user into the
// request context.
func (a *AuthController) ProfileShow(c *fiber.Ctx) error {
	user, ok := FromContext(c.UserContext())
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Unauthorized",
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"user": NewProfile(user),
	})
}

// renderError maps domain errors to the HTTP boundary: client-correctable
// categories become 400 with their message, everything else becomes an
// opaque 500 logged with full context.
func (a *AuthController) renderError(c *fiber.Ctx, err error) error {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "internal server error")
	}

	switch richErr.Category {
	case goerrors.CategoryValidation,
		goerrors.CategoryConflict,
		goerrors.CategoryAuth,
		goerrors.CategoryNotFound,
		goerrors.CategoryBadInput:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": richErr.Message,
		})
	default:
		a.Logger.Error("internal error at HTTP boundary",
			"error", richErr,
			"category", richErr.Category,
			"path", c.Path(),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Internal Server Error",
		})
	}
}

// ValidatePhoneNumber checks the value parses as a dialable number, assuming
// the given region for numbers without a country prefix.
func ValidatePhoneNumber(region string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}

		num, err := phonenumbers.Parse(s, region)
		if err != nil {
			return fmt.Errorf("must be a valid phone number: %w", err)
		}

		if !phonenumbers.IsValidNumber(num) {
			return errors.New("must be a valid phone number")
		}

		return nil
	}
}

// ValidateStringEquals will check that both values match
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}
