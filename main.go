package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"time"

	"github.com/itbasis/go-clock"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/DanielC11038/TempSlackBot/controller"
	"github.com/DanielC11038/TempSlackBot/platforms/openai"
	"github.com/DanielC11038/TempSlackBot/platforms/tba"
	"github.com/DanielC11038/TempSlackBot/store"
	"github.com/DanielC11038/TempSlackBot/web"
)

func main() {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Fatalf("Error loading .env file: %v", err)
	}

	portNum := 3000 // 3000 is the default
	port := os.Getenv("PORT")
	if port != "" {
		portNum, err = strconv.Atoi(port)
		if err != nil {
			log.Fatalf("error parsing port number: %v", err)
		}
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data"
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("error creating logger: %v", err)
	}
	defer logger.Sync()

	s, err := store.New(dataDir, logger)
	if err != nil {
		log.Fatalf("error creating local store: %v", err)
	}

	tbaClient, err := tba.New(os.Getenv("TBA_API_KEY"))
	if err != nil {
		log.Fatalf("error creating TBA client: %v", err)
	}

	aiClient, err := openai.New(os.Getenv("OPENAI_API_KEY"))
	if err != nil {
		log.Fatalf("error creating OpenAI client: %v", err)
	}

	clock := clock.New()
	ctrl, err := controller.New(clock, tbaClient, aiClient, s, logger, os.Getenv("CHAT_INSTRUCTIONS"))
	if err != nil {
		log.Fatalf("error creating a new controller: %v", err)
	}

	server, err := web.NewServer(portNum, ctrl)
	if err != nil {
		log.Fatalf("error creating new web server: %v", err)
	}

	shutdown := make(chan bool)
	wg := &sync.WaitGroup{}

	// Setup a handler to catch ctrl-c signals and properly shutdown everything.
	intChannel := make(chan os.Signal, 2)
	signal.Notify(intChannel, os.Interrupt)
	go func() {
		<-intChannel
		close(shutdown)

		// The index mapping table must survive restarts.
		if err := s.Flush(); err != nil {
			logger.Warn("error flushing index mappings during shutdown", zap.Error(err))
		}

		if err := waitTimeout(wg, 10*time.Second); err != nil {
			log.Printf("timed out waiting for proper shutdown")
			os.Exit(255)
		}
	}()

	// Start the web server
	wg.Add(1)
	go server.ListenAndServe(shutdown, wg)

	// Wait for everything to stop.
	wg.Wait()
	log.Printf("server shutdown")
}

func waitTimeout(wg *sync.WaitGroup, timeout time.Duration) error {
	c := make(chan any)
	go func() {
		defer close(c)
		wg.Wait()
	}()

	select {
	case <-c:
		return nil
	case <-time.After(timeout):
		return os.ErrDeadlineExceeded
	}
}
