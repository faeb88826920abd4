package log

import (
	"context"
	"database/sql/driver"
)

type connectorWrapper struct {
	connector driver.Connector
	driver    driver.Driver
	logger    logger
}

func (c *connectorWrapper) Connect(ctx context.Context) (driver.Conn, error) {
	conn, err := c.connector.Connect(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "建立连接失败", "错误", err)
		return nil, err
	}
	c.logger.DebugContext(ctx, "建立连接成功")
	return &connWrapper{conn: conn, logger: c.logger}, nil
}

func (c *connectorWrapper) Driver() driver.Driver {
	return c.driver
}

type dsnConnector struct {
	dsn    string
	driver driver.Driver
}

func (c dsnConnector) Connect(_ context.Context) (driver.Conn, error) {
	return c.driver.Open(c.dsn)
}

func (c dsnConnector) Driver() driver.Driver {
	return c.driver
}
