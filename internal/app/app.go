package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/bizforge/grantpay/internal/catalog"
	"github.com/bizforge/grantpay/internal/config"
	"github.com/bizforge/grantpay/internal/repository/pgrepo"
	"github.com/bizforge/grantpay/internal/repository/repoargs"
	"github.com/bizforge/grantpay/internal/service"
	"github.com/bizforge/grantpay/internal/transport/api"
	"github.com/bizforge/grantpay/internal/transport/gateway"
	"github.com/bizforge/grantpay/pkg/uow"

	// driver for migration applying postgres.
	_ "github.com/golang-migrate/migrate/v4/database/postgres" //nolint:revive
	// driver to get migrations from files (*.sql in our case).
	_ "github.com/golang-migrate/migrate/v4/source/file" //nolint:revive
	"github.com/jackc/pgx/v5/pgxpool"
)

type App struct {
	Config *config.Config
	Logger *logrus.Logger
}

func New(conf *config.Config, l *logrus.Logger) *App {
	return &App{
		Config: conf,
		Logger: l,
	}
}

func (a *App) Run() error {
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.Logger.Infof("Starting app with config: %+v", a.Config)
	conn, connErr := pgrepo.Connect(notifyCtx, a.Config.MigrationsDir, a.Config.DatabaseDSN, a.Logger)
	if connErr != nil {
		return errors.Wrap(connErr, "app run")
	}
	defer conn.Close()

	unitOfWork := initUOW(conn)

	cat, catErr := loadCatalog(a.Config.CatalogPath)
	if catErr != nil {
		return errors.Wrap(catErr, "app run")
	}

	gatewayClient := gateway.NewHTTPClient(a.Config.GatewayAddress)

	services, sErr := service.Factory(
		unitOfWork,
		cat,
		gatewayClient,
		decimal.NewFromInt(a.Config.MinDepositAmount),
	)
	if sErr != nil {
		return errors.Wrap(sErr, "app run")
	}

	router, routerErr := api.New(api.RouterArgs{
		Logger:         a.Logger,
		LedgerService:  services.LedgerService,
		CouponService:  services.CouponService,
		PaymentService: services.PaymentService,
		DepositService: services.DepositService,
		JWTSecretKey:   []byte(a.Config.JWTSecret),
	})
	if routerErr != nil {
		return errors.Wrap(routerErr, "app run")
	}

	errChan := make(chan error, 1)

	go func() {
		if runErr := router.Run(a.Config.RunAddress); runErr != nil {
			errChan <- runErr
		}
	}()

	select {
	case <-notifyCtx.Done():
		return notifyCtx.Err() //nolint:wrapcheck
	case err := <-errChan:
		return err
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default(), nil
	}
	cat, err := catalog.NewFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %s", err.Error())
	}
	return cat, nil
}

func initUOW(conn *pgxpool.Pool) *uow.UnitOfWork {
	unitOfWork := uow.NewUnitOfWork(conn)

	unitOfWork.MustRegister(uow.RepositoryName(repoargs.AccountRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewAccountRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.CreditHistoryRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewCreditHistoryRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.PaymentRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewPaymentRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.PaymentRequestRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewPaymentRequestRepository(dbtx)
	})
	unitOfWork.MustRegister(uow.RepositoryName(repoargs.CouponRepoName), func(dbtx uow.DBTX) uow.Repository {
		return pgrepo.NewCouponRepository(dbtx)
	})

	return unitOfWork
}
