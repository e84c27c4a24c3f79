package main

import (
	"fmt"
	"os"
	"os/user"
	"time"

	"github.com/alexanderramin/foreman/internal/cli"
	"github.com/alexanderramin/foreman/internal/config"
	"github.com/alexanderramin/foreman/internal/db"
	"github.com/alexanderramin/foreman/internal/domain"
	"github.com/alexanderramin/foreman/internal/logutils"
	"github.com/alexanderramin/foreman/internal/repository"
	"github.com/alexanderramin/foreman/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dataDir, err := config.DefaultDataDir()
	if err != nil {
		return err
	}
	cfg, err := config.Load(config.DefaultPath(dataDir), dataDir)
	if err != nil {
		return err
	}

	logger, closeLog, err := logutils.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return fmt.Errorf("setting up logging: %w", err)
	}
	defer closeLog()
	log.Logger = logger

	database, err := db.OpenDB(cfg.Database.Path, db.WithBusyTimeout(time.Duration(cfg.Database.BusyTimeoutMS)*time.Millisecond))
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	log.Debug().Str("path", cfg.Database.Path).Msg("database opened")

	// Wire repositories
	proposalRepo := repository.NewSQLiteProposalRepo(database)
	invoiceRepo := repository.NewSQLiteInvoiceRepo(database)
	projectRepo := repository.NewSQLiteProjectRepo(database)
	changeOrderRepo := repository.NewSQLiteChangeOrderRepo(database)
	stepRepo := repository.NewSQLiteStepRepo(database)

	// Wire unit of work for transactional operations
	uow := db.NewSQLiteUnitOfWork(database,
		db.WithBusyRetry(cfg.Database.BusyRetries, 25*time.Millisecond),
		db.WithLogger(logger.With().Str("component", "db").Logger()))

	settings := cfg.Settings()
	observer := service.NewLogUseCaseObserver(logger)

	proposalSvc := service.NewProposalService(proposalRepo, uow, settings, observer)
	app := &cli.App{
		Proposals: proposalSvc,
		Approvals: service.NewApprovalService(uow, settings, observer),
		Workflow:  service.NewWorkflowCoordinator(proposalRepo, invoiceRepo, projectRepo, changeOrderRepo, stepRepo, uow, settings, observer),
		Steps:     service.NewStepService(stepRepo, projectRepo, changeOrderRepo, uow, settings, observer),
		Reports:   service.NewReportService(projectRepo, invoiceRepo, changeOrderRepo, stepRepo, settings, observer),
		Import:    service.NewImportService(proposalSvc),
		Actor:     defaultActor(),
	}

	// Detect interactive terminal for the proposal form and confirmations.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}

// defaultActor is the local OS user acting as a manager. The --actor-* flags
// override it.
func defaultActor() domain.Actor {
	a := domain.Actor{ID: "local", Name: "local", Role: domain.RoleManager}
	if u, err := user.Current(); err == nil {
		a.ID = u.Username
		a.Name = u.Username
		if u.Name != "" {
			a.Name = u.Name
		}
	}
	return a
}
