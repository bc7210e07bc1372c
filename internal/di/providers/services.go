package providers

import (
	"github.com/samber/do/v2"

	"github.com/yamdb/yamdb-server/internal/auth"
	"github.com/yamdb/yamdb-server/internal/authz"
	"github.com/yamdb/yamdb-server/internal/config"
	"github.com/yamdb/yamdb-server/internal/logger"
	"github.com/yamdb/yamdb-server/internal/mail"
	"github.com/yamdb/yamdb-server/internal/service"
	"github.com/yamdb/yamdb-server/internal/validation"
)

// ProvideEnforcer provides the role permission enforcer.
func ProvideEnforcer(i do.Injector) (*authz.Enforcer, error) {
	return authz.NewEnforcer()
}

// ProvideValidator provides the request validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// ProvideMailer provides the outbound mailer selected by mail.backend.
func ProvideMailer(i do.Injector) (mail.Mailer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Mail.Backend != "smtp" {
		log.Info("Confirmation emails are written to the log")
		return mail.NewConsoleMailer(log.Logger), nil
	}

	log.Info("Confirmation emails go through SMTP",
		"host", cfg.Mail.Host,
		"port", cfg.Mail.Port,
		"starttls", cfg.Mail.StartTLS,
	)

	return mail.NewSMTPMailer(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
		StartTLS: cfg.Mail.StartTLS,
		Timeout:  cfg.Mail.Timeout,
	}, log.Logger), nil
}

// ProvideAuthService provides the signup and token service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	codes := do.MustInvoke[*auth.CodeGenerator](i)
	mailer := do.MustInvoke[mail.Mailer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokens, codes, mailer, validator, log.Logger), nil
}

// ProvideUserService provides the account service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, enforcer, validator, log.Logger), nil
}

// ProvideCategoryService provides the category service.
func ProvideCategoryService(i do.Injector) (*service.CategoryService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCategoryService(storeHandle.Store, enforcer, validator, log.Logger), nil
}

// ProvideGenreService provides the genre service.
func ProvideGenreService(i do.Injector) (*service.GenreService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewGenreService(storeHandle.Store, enforcer, validator, log.Logger), nil
}

// ProvideTitleService provides the title service.
func ProvideTitleService(i do.Injector) (*service.TitleService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewTitleService(storeHandle.Store, enforcer, validator, log.Logger), nil
}

// ProvideReviewService provides the review service.
func ProvideReviewService(i do.Injector) (*service.ReviewService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReviewService(storeHandle.Store, enforcer, validator, log.Logger), nil
}

// ProvideCommentService provides the comment service.
func ProvideCommentService(i do.Injector) (*service.CommentService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	reviews := do.MustInvoke[*service.ReviewService](i)
	enforcer := do.MustInvoke[*authz.Enforcer](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewCommentService(storeHandle.Store, reviews, enforcer, validator, log.Logger), nil
}
