package pool

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"time"

	"github.com/meoying/shardrouter/internal/driver/log"
	"github.com/meoying/shardrouter/internal/errs"
	"github.com/meoying/shardrouter/internal/partition"
	"go.uber.org/multierr"
)

// Pool 每个物理库一个 *sql.DB，探活数据源也有自己独立的连接池
type Pool struct {
	dbs         map[string]*sql.DB
	names       []string
	logger      *slog.Logger
	maxLifetime time.Duration
}

type Option func(p *Pool)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		p.logger = l
	}
}

func WithConnMaxLifetime(d time.Duration) Option {
	return func(p *Pool) {
		p.maxLifetime = d
	}
}

// Open 为注册中心里面所有的物理库和探活数据源创建连接池，任何一个失败都会关闭已经创建的
func Open(drv driver.Driver, registry *partition.Registry, opts ...Option) (*Pool, error) {
	p := &Pool{
		dbs:    make(map[string]*sql.DB, registry.Len()*2),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	for _, pt := range registry.Partitions() {
		for _, t := range pt.Targets() {
			if err := p.open(drv, pt.Name, t, pt.PoolSize); err != nil {
				return nil, multierr.Append(err, p.Close())
			}
		}
		// 探活只需要一个连接
		for _, t := range pt.Detectors() {
			if err := p.open(drv, pt.Name, t, 1); err != nil {
				return nil, multierr.Append(err, p.Close())
			}
		}
	}
	return p, nil
}

func (p *Pool) open(drv driver.Driver, partitionName string, t partition.Target, size int) error {
	l := p.logger.With(slog.String("partition", partitionName), slog.String("target", t.Name))
	connector, err := log.NewConnector(drv, t.DSN, log.WithLogger(l))
	if err != nil {
		return err
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(size)
	db.SetMaxIdleConns(size)
	if p.maxLifetime > 0 {
		db.SetConnMaxLifetime(p.maxLifetime)
	}
	p.dbs[t.Name] = db
	p.names = append(p.names, t.Name)
	return nil
}

func (p *Pool) DB(target string) (*sql.DB, error) {
	db, ok := p.dbs[target]
	if !ok {
		return nil, errs.NewErrNotFoundTarget(target)
	}
	return db, nil
}

// Conn 从物理库的连接池中拿一个连接，调用方用完之后需要关闭
func (p *Pool) Conn(ctx context.Context, target string) (*sql.Conn, error) {
	db, err := p.DB(target)
	if err != nil {
		return nil, err
	}
	return db.Conn(ctx)
}

// Names 按照创建顺序返回所有的物理库名字
func (p *Pool) Names() []string {
	return p.names
}

func (p *Pool) Close() error {
	var err error
	for _, name := range p.names {
		err = multierr.Append(err, p.dbs[name].Close())
	}
	return err
}
