// containers.go
//
// Database and cache containers for integration tests and local development
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of homespace.
// homespace is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// homespace is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with homespace.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

package testhelpers

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	"github.com/localnerve/homespace/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	defaultPostgresImage = "postgres:16-alpine"
	defaultMariaDBImage  = "mariadb:11"
	defaultRedisImage    = "redis:7-alpine"
	redisNetworkName     = "redis"
)

// TestContainers is a running database and redis pair on a private network
type TestContainers struct {
	Network        *testcontainers.DockerNetwork
	DBContainer    testcontainers.Container
	RedisContainer testcontainers.Container

	DBType string
	DBHost string
	DBPort string

	RedisURL string
}

// Terminate stops every container that was started and removes the network
func (tc *TestContainers) Terminate(t *testing.T) {
	ctx := context.Background()
	if tc.RedisContainer != nil {
		if err := tc.RedisContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate Redis: %v", err)
		}
	}
	if tc.DBContainer != nil {
		if err := tc.DBContainer.Terminate(ctx); err != nil {
			logMessage(t, "Failed to terminate %s: %v", tc.DBType, err)
		}
	}
	if tc.Network != nil {
		if err := tc.Network.Remove(ctx); err != nil {
			logMessage(t, "Failed to remove network: %v", err)
		}
	}
}

// Config returns an application config pointing at the mapped container ports
func (tc *TestContainers) Config() *config.Config {
	return &config.Config{
		Env:               "test",
		DBType:            tc.DBType,
		DBHost:            tc.DBHost,
		DBPort:            tc.DBPort,
		DBDatabase:        envOr("DB_DATABASE", "homespace"),
		DBUser:            envOr("DB_USER", "homespace"),
		DBPassword:        envOr("DB_PASSWORD", "homespace"),
		DBConnectionLimit: 5,
		DBLogLevel:        "silent",
		CacheType:         "redis",
		RedisURL:          tc.RedisURL,
	}
}

// DockerAvailable reports whether a docker daemon answers on the configured endpoint
func DockerAvailable(ctx context.Context) bool {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false
	}
	defer cli.Close()

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	_, err = cli.Ping(ctx)
	return err == nil
}

// SkipWithoutDocker skips integration tests in -short mode or without docker
func SkipWithoutDocker(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}
	if !DockerAvailable(context.Background()) {
		t.Skip("Skipping integration test, docker is not available")
	}
}

// CreateAllTestContainers starts the database selected by DB_TYPE (postgres by default)
// and a redis server. t may be nil when run outside of a test.
func CreateAllTestContainers(t *testing.T) (*TestContainers, error) {
	ctx := context.Background()
	testContainers := &TestContainers{DBType: envOr("DB_TYPE", "postgres")}

	nw, err := network.New(ctx)
	if err != nil {
		exitWithError(t, err, "Failed to create network")
		return nil, err
	}
	testContainers.Network = nw
	networkName := nw.Name

	// Create and start the Database container
	dbImage, dbPortNumber := dbImageAndPort(testContainers.DBType)
	tcpDbPort, err := nat.NewPort("tcp", dbPortNumber)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to create DB port")
		return nil, err
	}
	if ok, err := imageExists(ctx, dbImage); err == nil && !ok {
		logMessage(t, "Image %s not found locally, pulling...", dbImage)
	}
	dbContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        dbImage,
			ExposedPorts: []string{string(tcpDbPort)},
			Env:          getDBInitEnvMap(testContainers.DBType),
			WaitingFor:   dbWaitStrategy(testContainers.DBType, tcpDbPort),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {"database"},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Database")
		return nil, err
	}
	testContainers.DBContainer = dbContainer

	dbHost, err := dbContainer.Host(ctx)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to read Database host")
		return nil, err
	}
	dbPort, err := dbContainer.MappedPort(ctx, tcpDbPort)
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to read Database port")
		return nil, err
	}
	testContainers.DBHost = dbHost
	testContainers.DBPort = dbPort.Port()
	logMessage(t, "DB_HOST=%s DB_PORT=%s", dbHost, dbPort.Port())

	// Create and start the Redis container
	tcpRedisPort, _ := nat.NewPort("tcp", "6379")
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        envOr("REDIS_IMAGE", defaultRedisImage),
			ExposedPorts: []string{string(tcpRedisPort)},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
			Networks:     []string{networkName},
			NetworkAliases: map[string][]string{
				networkName: {redisNetworkName},
			},
		},
		Started: true,
	})
	if err != nil {
		testContainers.Terminate(t)
		exitWithError(t, err, "Failed to start Redis")
		return nil, err
	}
	testContainers.RedisContainer = redisContainer

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, tcpRedisPort)
	testContainers.RedisURL = fmt.Sprintf("redis://%s:%s/0", redisHost, redisPort.Port())
	logMessage(t, "REDIS_URL=%s", testContainers.RedisURL)

	logMessage(t, "homespace testcontainers started successfully")
	return testContainers, nil
}

func dbImageAndPort(dbType string) (string, string) {
	switch dbType {
	case "mysql", "mariadb":
		return envOr("DB_IMAGE", defaultMariaDBImage), "3306"
	}
	return envOr("DB_IMAGE", defaultPostgresImage), "5432"
}

func dbWaitStrategy(dbType string, port nat.Port) wait.Strategy {
	if dbType == "postgres" || dbType == "postgresql" {
		// postgres restarts once after initdb; the second ready line is the real one
		return wait.ForAll(
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
			wait.ForListeningPort(port),
		).WithDeadline(60 * time.Second)
	}
	return wait.ForListeningPort(port).WithStartupTimeout(60 * time.Second)
}

func getDBInitEnvMap(dbType string) map[string]string {
	switch dbType {
	case "mysql", "mariadb":
		return map[string]string{
			"MARIADB_ROOT_PASSWORD": envOr("DB_ROOT_PASSWORD", "root"),
			"MARIADB_DATABASE":      envOr("DB_DATABASE", "homespace"),
			"MARIADB_USER":          envOr("DB_USER", "homespace"),
			"MARIADB_PASSWORD":      envOr("DB_PASSWORD", "homespace"),
		}
	}
	return map[string]string{
		"POSTGRES_DB":       envOr("DB_DATABASE", "homespace"),
		"POSTGRES_USER":     envOr("DB_USER", "homespace"),
		"POSTGRES_PASSWORD": envOr("DB_PASSWORD", "homespace"),
	}
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, image := range images {
		for _, tag := range image.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func exitWithError(t *testing.T, err error, msg string) {
	if t != nil {
		t.Fatalf(msg+": %v", err)
	} else {
		fmt.Printf(msg+": %v\n", err)
	}
}

func logMessage(t *testing.T, format string, args ...any) {
	if t != nil {
		t.Logf(format, args...)
	} else {
		fmt.Printf(format+"\n", args...)
	}
}
