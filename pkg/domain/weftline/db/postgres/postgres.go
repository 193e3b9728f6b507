package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	kpool "github.com/weftline/weftline/pkg/conn/db/postgres/pool"
	dbInterface "github.com/weftline/weftline/pkg/domain/weftline/db"
	kprod "github.com/weftline/weftline/pkg/domain/production/db"
	kpgprod "github.com/weftline/weftline/pkg/domain/production/db/postgres"
	xe "github.com/weftline/weftline/pkg/errors"
)

type weftlineDBPostgres struct {
	pool       *pgxpool.Pool
	production kprod.Interface
}

type Config struct {
	ProductionOptions []kpgprod.Option
}

type Option func(*Config) *Config

func WithProductionOptions(options ...kpgprod.Option) Option {
	return func(c *Config) *Config {
		c.ProductionOptions = append(c.ProductionOptions, options...)
		return c
	}
}

func New(
	ctx context.Context,
	url string,
	options ...Option,
) (dbInterface.WeftlineDatabase, error) {
	pool, err := pgxpool.Connect(ctx, url)
	if err != nil {
		return nil, xe.Wrap(err)
	}

	c := &Config{}
	for _, option := range options {
		c = option(c)
	}

	p := kpool.Wrap(pool)

	return &weftlineDBPostgres{
		pool:       pool,
		production: kpgprod.New(p, c.ProductionOptions...),
	}, nil
}

func (w *weftlineDBPostgres) Production() kprod.Interface {
	return w.production
}

func (w *weftlineDBPostgres) Close() error {
	w.pool.Close()
	return nil
}
