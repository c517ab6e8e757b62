package internal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	postgres_adapter "sauto-parser/internal/adapters/postgres"
	rabbitmq_adapter "sauto-parser/internal/adapters/rabbitmq"
	"sauto-parser/internal/adapters/sautofetcher"
	"sauto-parser/internal/adapters/tableprinter"
	"sauto-parser/internal/configs"
	"sauto-parser/internal/constants"
	"sauto-parser/internal/core/domain"
	"sauto-parser/internal/core/port"
	"sauto-parser/internal/core/usecase"
	"sauto-parser/pkg/postgres"
	"sauto-parser/pkg/rabbitmq/rabbitmq_common"
	"sauto-parser/pkg/rabbitmq/rabbitmq_consumer"
	"sauto-parser/pkg/rabbitmq/rabbitmq_producer"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Options - значения флагов командной строки, перекрывающие переменные окружения.
type Options struct {
	EnvFile    string
	FilterFile string
	Format     string
	MaxPages   int // < 0 - из конфигурации
	Workers    int // <= 0 - из конфигурации
	Out        io.Writer
}

// App – структура приложения
type App struct {
	config  *configs.AppConfig
	printer *tableprinter.Printer
	columns []string

	dbPool        *pgxpool.Pool
	eventProducer *rabbitmq_producer.Publisher
}

// NewApp загружает конфигурацию, настраивает логирование и вывод. Сетевые
// зависимости создаются в RunScrape/RunDrain.
func NewApp(opts Options) (*App, error) {
	appConfig, err := configs.LoadConfig(opts.EnvFile)
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}
	if opts.FilterFile != "" {
		appConfig.Sauto.FilterFile = opts.FilterFile
	}
	if opts.Format != "" {
		appConfig.OutputFormat = opts.Format
	}
	if opts.MaxPages >= 0 {
		appConfig.Sauto.MaxPages = opts.MaxPages
	}
	if opts.Workers > 0 {
		appConfig.Sauto.Workers = opts.Workers
	}

	if err := ConfigureLogging(appConfig.LogLevel); err != nil {
		return nil, err
	}

	format, err := tableprinter.ParseFormat(appConfig.OutputFormat)
	if err != nil {
		return nil, err
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	return &App{
		config:  appConfig,
		printer: tableprinter.New(out, format),
		columns: domain.Columns(domain.DefaultEquipment),
	}, nil
}

// ConfigureLogging: консольный вывод в stderr, уровень из LOG_LEVEL.
func ConfigureLogging(level string) error {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	if level == "" {
		level = "info"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// RunScrape выполняет один проход: фильтр -> перечисление -> детали -> таблица.
// SIGINT/SIGTERM отменяют проход.
func (a *App) RunScrape(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.close()

	filter, fileCodes, err := configs.LoadFilter(a.config.Sauto.FilterFile, constants.DefaultSearchFilter())
	if err != nil {
		return err
	}

	// Порядок источников: встроенные коды, база, файл фильтра.
	var sources []port.FilterCodeSourcePort
	if a.config.Database.URL != "" {
		a.dbPool, err = postgres.NewClient(ctx, postgres.Config{
			DatabaseURL: a.config.Database.URL,
			MaxConns:    int32(a.config.Database.MaxConns),
		})
		if err != nil {
			return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		log.Info().Msg("App: connected to PostgreSQL pool")

		dbCodes, err := postgres_adapter.NewFilterCodesAdapter(a.dbPool)
		if err != nil {
			return err
		}
		sources = append(sources, dbCodes)
	}
	if len(fileCodes) > 0 {
		sources = append(sources, usecase.StaticFilterCodes(fileCodes))
	}

	resolveFilter := usecase.NewResolveFilterUseCase(constants.BuiltinFilterCodes(), sources...)
	resolved, err := resolveFilter.Execute(ctx, filter)
	if err != nil {
		return err
	}

	var sinks []port.RecordSinkPort
	if a.config.RabbitMQ.URL != "" && a.config.RabbitMQ.PublishRecords {
		a.eventProducer, err = rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
			Config:                   rabbitmq_common.Config{URL: a.config.RabbitMQ.URL},
			ExchangeName:             constants.ExchangeRecords,
			ExchangeType:             "direct",
			DurableExchange:          true,
			DeclareExchangeIfMissing: true,
		})
		if err != nil {
			return fmt.Errorf("failed to create event producer: %w", err)
		}
		recordQueue, err := rabbitmq_adapter.NewRecordQueueAdapter(a.eventProducer, constants.RoutingKeyRecords)
		if err != nil {
			return err
		}
		sinks = append(sinks, recordQueue)
		log.Info().Str("routing_key", constants.RoutingKeyRecords).Msg("App: records will be published to RabbitMQ")
	}

	sauto, err := sautofetcher.NewSautoFetcherAdapter(sautofetcher.Config{
		BaseURL:         a.config.Sauto.BaseURL,
		AllowedDomains:  a.config.Sauto.AllowedDomains,
		Parallelism:     a.config.Sauto.Parallelism,
		Delay:           a.config.Sauto.RequestDelay,
		RandomDelay:     a.config.Sauto.RandomDelay,
		RequestTimeout:  a.config.Sauto.RequestTimeout,
		Equipment:       domain.DefaultEquipment,
		EquipmentPolicy: a.config.Sauto.MissingEquipment,
	})
	if err != nil {
		return err
	}

	enumerate := usecase.NewEnumerateAdvertsUseCase(sauto, a.config.Sauto.PagingMode, a.config.Sauto.MaxPages)
	collect := usecase.NewCollectRecordsUseCase(enumerate, sauto, a.columns, a.config.Sauto.Workers, sinks...)

	table, stats, err := collect.Execute(ctx, resolved)
	if err != nil {
		return err
	}
	log.Info().
		Int("enumerated", stats.Enumerated).
		Int("accepted", stats.Accepted).
		Int("skipped", stats.Skipped).
		Msg("App: scrape finished")

	return a.printer.Print(table)
}

// RunDrain слушает очередь записей до сигнала или ошибки брокера и печатает
// накопленную таблицу.
func (a *App) RunDrain(ctx context.Context) error {
	if a.config.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL environment variable is required for drain")
	}

	appCtx, cancelApp := context.WithCancel(ctx)
	defer cancelApp()

	accumulate := usecase.NewAccumulateRecordsUseCase(a.columns)
	listener, err := rabbitmq_adapter.NewRecordConsumerAdapter(rabbitmq_consumer.ConsumerConfig{
		Config:          rabbitmq_common.Config{URL: a.config.RabbitMQ.URL},
		QueueName:       constants.QueueRecords,
		DeclareQueue:    true,
		DurableQueue:    true,
		ExchangeName:    constants.ExchangeRecords,
		ExchangeType:    "direct",
		DeclareExchange: true,
		RoutingKey:      constants.RoutingKeyRecords,
		PrefetchCount:   10,
		ConsumerTag:     "sauto-record-drain",
		Concurrency:     1,
	}, accumulate)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	consumerErrors := make(chan error, 1)

	wg.Add(1)
	go func(l port.EventListenerPort) {
		defer wg.Done()
		log.Info().Msg("App: starting record listener")
		if err := l.Start(appCtx); err != nil {
			consumerErrors <- fmt.Errorf("record listener error: %w", err)
		}
	}(listener)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	log.Info().Msg("App: draining records, press Ctrl+C to print the table")
	var runErr error
	select {
	case receivedSignal := <-quit:
		log.Info().Str("signal", receivedSignal.String()).Msg("App: received signal, shutting down")
	case runErr = <-consumerErrors:
		log.Error().Err(runErr).Msg("App: record listener failed, shutting down")
	case <-appCtx.Done():
		log.Info().Msg("App: context cancelled, shutting down")
	}

	cancelApp()
	wg.Wait()
	if err := listener.Close(); err != nil {
		log.Warn().Err(err).Msg("App: error closing record listener")
	}

	snapshot, err := accumulate.Snapshot()
	if err != nil {
		return err
	}
	if err := a.printer.Print(snapshot); err != nil {
		return err
	}
	return runErr
}

func (a *App) close() {
	if a.eventProducer != nil {
		if err := a.eventProducer.Close(); err != nil {
			log.Warn().Err(err).Msg("App: error closing event producer")
		}
		a.eventProducer = nil
	}
	if a.dbPool != nil {
		a.dbPool.Close()
		a.dbPool = nil
		log.Debug().Msg("App: PostgreSQL pool closed")
	}
}
