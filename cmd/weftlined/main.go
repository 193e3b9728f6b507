package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"path"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	kcb "github.com/weftline/weftline/pkg/configs/backend"
	"github.com/weftline/weftline/pkg/domain"
	"github.com/weftline/weftline/pkg/domain/production/engine"
	wdb "github.com/weftline/weftline/pkg/domain/weftline/db"
	wpg "github.com/weftline/weftline/pkg/domain/weftline/db/postgres"
	"github.com/weftline/weftline/pkg/eventsink"
	sinknats "github.com/weftline/weftline/pkg/eventsink/nats"
	sinkwebhook "github.com/weftline/weftline/pkg/eventsink/webhook"
	"github.com/weftline/weftline/pkg/utils/echoutil"
	"github.com/weftline/weftline/pkg/utils/filewatch"
	kstrings "github.com/weftline/weftline/pkg/utils/strings"

	"github.com/weftline/weftline/cmd/weftlined/handlers"
)

func main() {

	configPath := flag.String("config-path", "", "weftlined config path")
	loglevel := flag.String("loglevel", "info", "log level. debug|info|warn|error|off")
	pcert := flag.String("cert", "", "certification file for TLS")
	pkey := flag.String("certkey", "", "key of certification file for TLS")
	flag.Parse()

	e := echo.New()
	e.Pre(middleware.AddTrailingSlash())

	// set log
	echoutil.SetLevel(e, *loglevel)
	e.HTTPErrorHandler = func(err error, ctx echo.Context) {
		e.DefaultHTTPErrorHandler(err, ctx)
		e.Logger.Error(err)
	}
	e.Use(echoutil.LogHandlerFunc)

	zlog := zerolog.New(os.Stderr).With().Timestamp().Logger()

	// read configfile
	conf, err := kcb.LoadBackendConfig(*configPath)
	if err != nil {
		log.Fatalf("can not read configuration: %s", err)
	}

	{
		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), *configPath)
		if err != nil {
			log.Fatalf("can not watch configuration: %s", err)
		}
		defer cancel()
		context.AfterFunc(ctx, func() {
			log.Println("config file is updated. quit to restart server.")
			graceful, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := e.Shutdown(graceful); err != nil {
				log.Printf("error on shutdown by config update: %s", err)
			}
		})
	}

	api, err := root("/api")
	if err != nil {
		log.Fatalf("api root /api is invalid url or path: %s", err)
	}

	// get dbaccesor
	ctx := context.Background()
	db, err := getDBAccesor(ctx, conf.Database())
	if err != nil {
		log.Fatalf("can not connect to database: %s", err.Error())
	}
	defer db.Close()

	sink, teardown, err := buildEventSink(conf.Events(), zlog)
	if err != nil {
		log.Fatalf("can not set up event sink: %s", err)
	}
	defer teardown()

	eng := engine.New(db.Production(), sink, zlog)

	// handlers
	{
		recordId := "recordId"
		e.GET(api("productions"), handlers.FindProductionHandler(db.Production()))
		e.POST(api("productions"), handlers.CreateProductionHandler(eng))

		e.GET(api("productions/:recordId/"), handlers.GetProductionHandler(db.Production(), recordId))

		e.POST(api("productions/:recordId/stages/start"), handlers.StartStageHandler(eng, recordId))
		e.POST(api("productions/:recordId/stages/complete"), handlers.CompleteStageHandler(eng, recordId))
		e.POST(api("productions/:recordId/stages/revert"), handlers.RevertStageHandler(eng, recordId))

		e.POST(api("productions/:recordId/quality-checks"), handlers.QualityCheckHandler(eng, recordId))

		e.POST(api("productions/:recordId/cancel"), handlers.CancelProductionHandler(eng, recordId))
	}
	log.Println("registred routes:")
	for _, r := range e.Routes() {
		log.Println(r.Method, r.Path)
	}

	port := fmt.Sprintf("%d", conf.Port())
	cert, key := *pcert, *pkey
	if cert != "" && key != "" {
		e.Logger.Fatal(e.StartTLS(":"+port, cert, key))
	} else {
		e.Logger.Fatal(e.Start(":" + port))
	}
}

func getDBAccesor(ctx context.Context, dburi string) (wdb.WeftlineDatabase, error) {
	return wpg.New(ctx, dburi)
}

// build the event sink from config.
//
// returns the sink, a teardown closing its connections, and error.
func buildEventSink(conf *kcb.EventsConfig, zlog zerolog.Logger) (domain.EventSink, func(), error) {
	noop := func() {}
	if conf == nil {
		return eventsink.Nop{}, noop, nil
	}

	sinks := eventsink.Multi{}
	teardown := noop

	if nc := conf.Nats(); nc != nil {
		conn, err := sinknats.Connect(nc.Url())
		if err != nil {
			return nil, noop, err
		}
		teardown = conn.Close
		sinks = append(sinks, sinknats.New(
			conn, zlog, sinknats.WithSubjectPrefix(nc.SubjectPrefix()),
		))
	}

	if hooks := conf.Webhooks(); 0 < len(hooks) {
		urls := make([]*url.URL, 0, len(hooks))
		for _, h := range hooks {
			u, err := url.Parse(h)
			if err != nil {
				return nil, teardown, fmt.Errorf("webhook url %s: %w", h, err)
			}
			urls = append(urls, u)
		}
		sinks = append(sinks, sinkwebhook.New(urls))
	}

	if len(sinks) == 0 {
		return eventsink.Nop{}, teardown, nil
	}
	return sinks, teardown, nil
}

// create api URL factory
//
// args:
//   - root: api root
//
// return:
// - func: it receive relative path from root, and returns full-path of URL.
func root(r string) (func(...string) string, error) {
	base := ""
	{
		b, err := url.Parse(r)
		if err != nil {
			return nil, err
		}
		base = b.Path
	}

	return func(s ...string) string {
		parts := make([]string, len(s)+1)
		parts[0] = base
		copy(parts[1:], s)
		path := path.Join(parts...)
		path = kstrings.TrimPrefixAll(path, "/")

		return kstrings.SuppySuffix("/"+path, "/")
	}, nil
}
