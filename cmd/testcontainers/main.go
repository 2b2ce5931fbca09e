package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/homespace/internal/testhelpers"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run a database and redis container for local homespace development, using
the environment variables from the .env file.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

DB_TYPE selects the database image (postgres, mysql, mariadb).

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	testContainers, err := testhelpers.CreateAllTestContainers(nil)
	if err != nil {
		log.Fatalf("Failed to create test containers: %v\n", err)
	}

	cfg := testContainers.Config()
	fmt.Println("Containers are ready. Point the server at them with:")
	fmt.Printf("  DB_TYPE=%s\n", cfg.DBType)
	fmt.Printf("  DB_HOST=%s\n", cfg.DBHost)
	fmt.Printf("  DB_PORT=%s\n", cfg.DBPort)
	fmt.Printf("  DB_DATABASE=%s\n", cfg.DBDatabase)
	fmt.Printf("  DB_USER=%s\n", cfg.DBUser)
	fmt.Printf("  DB_PASSWORD=%s\n", cfg.DBPassword)
	fmt.Printf("  CACHE_TYPE=%s\n", cfg.CacheType)
	fmt.Printf("  REDIS_URL=%s\n", cfg.RedisURL)

	sig := <-sigs
	log.Printf("\nReceived signal: %v, terminating test containers...\n", sig)
	testContainers.Terminate(nil)
}
