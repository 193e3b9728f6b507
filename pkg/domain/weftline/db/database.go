package db

import (
	kprod "github.com/weftline/weftline/pkg/domain/production/db"
)

type WeftlineDatabase interface {
	Production() kprod.Interface
	Close() error
}
