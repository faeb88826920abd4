package log

import (
	"database/sql/driver"
)

var (
	_ driver.Driver        = &driverWrapper{}
	_ driver.DriverContext = &driverWrapper{}
)

type driverWrapper struct {
	driver driver.Driver
	logger logger
}

func newDriver(d driver.Driver, l logger) *driverWrapper {
	return &driverWrapper{
		driver: d,
		logger: l,
	}
}

func (d *driverWrapper) Open(name string) (driver.Conn, error) {
	conn, err := d.driver.Open(name)
	if err != nil {
		d.logger.Error("打开连接失败", "错误", err)
		return nil, err
	}
	d.logger.Info("打开连接成功")
	return &connWrapper{conn: conn, logger: d.logger}, nil
}

// OpenConnector 驱动没有实现 driver.DriverContext 的时候退化为每次用 dsn 打开连接
func (d *driverWrapper) OpenConnector(name string) (driver.Connector, error) {
	dc, ok := d.driver.(driver.DriverContext)
	if !ok {
		d.logger.Info("驱动不支持连接器，使用 dsn 打开连接")
		return &connectorWrapper{connector: dsnConnector{dsn: name, driver: d.driver}, driver: d, logger: d.logger}, nil
	}
	connector, err := dc.OpenConnector(name)
	if err != nil {
		d.logger.Error("打开连接器失败", "错误", err)
		return nil, err
	}
	d.logger.Info("连接器打开成功")
	return &connectorWrapper{connector: connector, driver: d, logger: d.logger}, nil
}
