package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/angohost/payref/internal/app/api/server"
	"github.com/angohost/payref/internal/app/service/callback"
	"github.com/angohost/payref/internal/app/service/callbacklog"
	"github.com/angohost/payref/internal/app/service/notify"
	"github.com/angohost/payref/internal/app/service/reconcile"
	"github.com/angohost/payref/internal/app/service/records"
	"github.com/angohost/payref/internal/app/service/resolver"
	walletsvc "github.com/angohost/payref/internal/app/service/wallet"
	"github.com/angohost/payref/internal/platform/db"
	"github.com/angohost/payref/internal/platform/mq"
	"github.com/angohost/payref/internal/platform/redislock"
	"github.com/angohost/payref/internal/repository"
	"github.com/angohost/payref/pkg/config"
	"github.com/angohost/payref/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	redislock.Module,
	mq.Module,
	repository.Module,
	server.Module,
	callbacklog.Module,
	resolver.Module,
	reconcile.Module,
	callback.Module,
	walletsvc.Module,
	records.Module,
	notify.Module,
)
