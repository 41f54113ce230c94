package gologger

import (
	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

// Resolve picks the logger pair for name. An explicit provider wins over a
// bare logger; with neither the result is a nop logger.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	return glog.Resolve(name, provider, logger)
}

// Build creates the process root logger and a provider for named children.
func Build(name string, production bool, level string) (ZapProvider, glog.Logger, error) {
	root, err := NewZapLogger(production, level)
	if err != nil {
		return ZapProvider{}, nil, err
	}
	provider := ZapProvider{Root: root}
	return provider, provider.GetLogger(name), nil
}

// ToJobLogger bridges a go-logger logger to the go-job worker logger.
func ToJobLogger(logger glog.Logger) job.Logger {
	return job.GoLogger(logger)
}
