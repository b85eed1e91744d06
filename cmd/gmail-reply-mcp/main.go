// Gmail reply MCP server drafts context-aware email replies and creates them
// as Gmail drafts only after explicit confirmation.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/hal9000y/gmail-reply-mcp/internal/auth"
	"github.com/hal9000y/gmail-reply-mcp/internal/config"
	"github.com/hal9000y/gmail-reply-mcp/internal/confirm"
	"github.com/hal9000y/gmail-reply-mcp/internal/connector"
	"github.com/hal9000y/gmail-reply-mcp/internal/gather"
	"github.com/hal9000y/gmail-reply-mcp/internal/generator"
	"github.com/hal9000y/gmail-reply-mcp/internal/gservice"
	"github.com/hal9000y/gmail-reply-mcp/internal/httpapi"
	"github.com/hal9000y/gmail-reply-mcp/internal/knowledge"
	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
	"github.com/hal9000y/gmail-reply-mcp/internal/reply"
	"github.com/hal9000y/gmail-reply-mcp/internal/staging"
	"github.com/hal9000y/gmail-reply-mcp/internal/tool"
)

var version = "dev"

const oauthStateSweepInterval = time.Minute

func main() {
	configFile := flag.String("config", "", "Path to YAML config file, empty to use defaults")
	httpAddr := flag.String("http-addr", "", "HTTP SERVER listen addr (overrides config)")
	oauthTokenFile := flag.String("oauth-token-file", "", "Path to cache google oauth token (overrides config)")
	oauthURLParam := flag.String("oauth-url", "", "OAuth URL")
	envFileParam := flag.String("env-file", "", "Path to env file")
	enableStdio := flag.Bool("stdio", false, "Enable stdio transport for MCP (disables stdout logging)")
	logFile := flag.String("log-file", "", "Path to log file (only used with stdio transport, otherwise logs to stdout)")

	flag.Parse()

	conf := mustLoadConfig(*configFile, *envFileParam)
	if *httpAddr != "" {
		conf.HTTPAddr = *httpAddr
	}
	if *oauthTokenFile != "" {
		conf.OAuth.TokenFile = *oauthTokenFile
	}
	if *oauthURLParam != "" {
		conf.OAuth.URL = *oauthURLParam
	}
	if *logFile != "" {
		conf.LogFile = *logFile
	}

	persistLogs := setupLogger(*enableStdio, conf.LogFile)
	defer persistLogs()

	if err := conf.Validate(); err != nil {
		panic(fmt.Errorf("invalid configuration: %w", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if conf.Tracing.Endpoint != "" {
		shutdownTracer, err := observability.InitTracer(ctx, conf.Tracing.ServiceName, version, conf.Tracing.Endpoint)
		if err != nil {
			panic(fmt.Errorf("observability.InitTracer failed: %w", err))
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				log.Println(fmt.Errorf("shutdownTracer failed: %w", err))
			}
		}()
	}

	ln := mustListen(conf.HTTPAddr)
	oauthCfg := createOauthCfg(ln.Addr().String(), conf.OAuth)

	tok, err := auth.NewToken(oauthCfg, conf.OAuth.TokenFile)
	if err != nil {
		panic(fmt.Errorf("auth.NewToken failed: %w", err))
	}
	stopStateSweep, err := tok.StartStateSweep(oauthStateSweepInterval)
	if err != nil {
		panic(fmt.Errorf("tok.StartStateSweep failed: %w", err))
	}
	defer stopStateSweep()

	defer func() {
		log.Println("Persisting token if exists")
		if err := tok.Persist(); err != nil {
			log.Println(fmt.Errorf("tok.Persist failed: %w", err))
		}
	}()

	kb, err := knowledge.Open(ctx, conf.Knowledge.DBPath, conf.Knowledge.Seed)
	if err != nil {
		panic(fmt.Errorf("knowledge.Open failed: %w", err))
	}
	defer func() {
		if err := kb.Close(); err != nil {
			log.Println(fmt.Errorf("kb.Close failed: %w", err))
		}
	}()

	drafts := staging.NewMemory[reply.Draft]("drafts", conf.Staging.TTL)
	stopSweep, err := drafts.StartSweep(conf.Staging.SweepInterval)
	if err != nil {
		panic(fmt.Errorf("drafts.StartSweep failed: %w", err))
	}
	defer stopSweep()

	gmailSvc := gservice.NewGmail(tok)
	threads := connector.NewThreads(gmailSvc, connector.NewAccount(gmailSvc))
	orchestrator := gather.NewOrchestrator(
		threads,
		connector.NewHistory(gmailSvc, conf.History.MaxResults),
		kb,
	)
	gen := generator.NewClient(generator.Options{
		Endpoint:    conf.Generator.Endpoint,
		Model:       conf.Generator.Model,
		APIKey:      conf.Generator.APIKey,
		Temperature: &conf.Generator.Temperature,
		Timeout:     conf.Generator.Timeout,
	})
	protocol := confirm.NewProtocol(orchestrator, gen, drafts, connector.NewDrafts(gmailSvc),
		confirm.WithMaxAttempts(conf.Confirm.MaxCreateAttempts),
		confirm.WithCustomInstructions(conf.Generator.CustomInstructions),
	)

	replyT := tool.NewServer(gmailSvc, threads, protocol)
	mcpHTTP := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server { return replyT }, nil)

	mux := http.NewServeMux()
	mux.Handle("/oauth", auth.NewHTTPHandler(tok, auth.WithPendingDrafts(drafts.Len)))
	mux.Handle("/mcp", mcpHTTP)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/", httpapi.New(protocol))

	srv := &http.Server{
		Handler: mux,
	}

	shutdown := make(chan os.Signal, 1)

	signal.Notify(shutdown, syscall.SIGTERM, syscall.SIGINT)

	if _, err := tok.OAuthToken(); errors.Is(err, auth.ErrTokenNotSet) {
		openBrowser(oauthCfg.RedirectURL)
	}

	stopHTTP, errHTTPCh := serveHTTP(srv, ln)
	defer stopHTTP()

	var errStdioCh <-chan error
	if *enableStdio {
		var stopStdio func()
		stopStdio, errStdioCh = serveStdio(replyT)
		defer stopStdio()
	}

	select {
	case err := <-errHTTPCh:
		log.Println("Error http server", err)
	case err := <-errStdioCh:
		log.Println("Error stdio", err)
	case <-shutdown:
		log.Println("Shutdown signal received")
	}
}

func serveStdio(srv *mcp.Server) (func(), <-chan error) {
	errStdioCh := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer close(errStdioCh)
		log.Println("Starting stdio transport")

		if err := srv.Run(ctx, &mcp.StdioTransport{}); err != nil {
			err = fmt.Errorf("srv.Run failed: %w", err)
			errStdioCh <- err
		}
	}()

	return func() {
		cancel()

		<-errStdioCh
		log.Println("Stdio transport stopped")
	}, errStdioCh
}

func serveHTTP(srv *http.Server, ln net.Listener) (func(), <-chan error) {
	errHTTPCh := make(chan error, 1)
	go func() {
		defer close(errHTTPCh)

		log.Println("Starting http server on", ln.Addr().String())

		err := srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			err = fmt.Errorf("srv.Serve failed: %w", err)
			log.Println(err)
			errHTTPCh <- err
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Println(fmt.Errorf("srv.Shutdown failed: %w", err))
		}

		<-errHTTPCh
		log.Println("HTTP server stopped")
	}, errHTTPCh
}

func mustLoadConfig(path, envFile string) *config.Config {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(fmt.Errorf("godotenv.Load failed: %w", err))
		}
	}

	conf, err := config.Load(path)
	if err != nil {
		panic(fmt.Errorf("config.Load failed: %w", err))
	}

	return conf
}

func mustListen(httpAddr string) net.Listener {
	ln, err := net.Listen("tcp", httpAddr)
	if err != nil {
		panic(fmt.Errorf("net.Listen failed: %w", err))
	}

	return ln
}

func createOauthCfg(lnAddr string, conf config.OAuth) *oauth2.Config {
	oauthURL := fmt.Sprintf("http://%s/oauth", lnAddr)
	if conf.URL != "" {
		oauthURL = conf.URL
	}

	return &oauth2.Config{
		ClientID:     conf.ClientID,
		ClientSecret: conf.ClientSecret,
		RedirectURL:  oauthURL,
		Scopes:       gservice.Scopes,
		Endpoint:     google.Endpoint,
	}
}

func setupLogger(enableStdio bool, logFile string) func() {
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			panic(fmt.Errorf("failed to open log file: %w", err))
		}
		log.SetOutput(f)

		return func() {
			if err := f.Close(); err != nil {
				log.Println(fmt.Errorf("f.Close failed: %w", err))
			}
		}
	}

	if enableStdio {
		log.SetOutput(io.Discard)
	} else {
		log.SetOutput(os.Stdout)
	}

	return func() {}
}

func openBrowser(url string) {
	url = fmt.Sprintf("%s?redirect=1", url)
	var err error
	switch runtime.GOOS {
	case "linux":
		err = exec.Command("xdg-open", url).Start()
	case "windows":
		err = exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	case "darwin":
		err = exec.Command("open", url).Start()
	default:
		err = fmt.Errorf("unsupported platform")
	}

	if err != nil {
		log.Printf("Could not open browser automatically: %v; please copy and open link in the browser: %s\n", err, url)
	}
}
