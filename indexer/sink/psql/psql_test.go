package psql

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gogo/protobuf/proto"
	"github.com/holiman/uint256"
	"github.com/ory/dockertest"
	"github.com/ory/dockertest/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/types"
)

var (
	doPauseAtExit = flag.Bool("pause-at-exit", false,
		"If true, pause the test until interrupted at shutdown, to allow debugging")

	// A hook that test cases can call to obtain the shared database instance
	// used for testing the sink. This is initialized in TestMain (see below).
	// It returns nil when Docker is not available.
	testDB func() *sql.DB
)

const (
	user     = "postgres"
	password = "secret"
	port     = "5432"
	dsn      = "postgres://%s:%s@localhost:%s/%s?sslmode=disable"
	dbName   = "postgres"
	chainID  = "test-chainID"
)

func TestMain(m *testing.M) {
	flag.Parse()
	testDB = func() *sql.DB { return nil }

	// Set up docker and start a container running PostgreSQL.
	pool, err := dockertest.NewPool(os.Getenv("DOCKER_URL"))
	if err != nil {
		log.Printf("Docker unavailable, skipping database tests: %v", err)
		os.Exit(m.Run())
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "13",
		Env: []string{
			"POSTGRES_USER=" + user,
			"POSTGRES_PASSWORD=" + password,
			"POSTGRES_DB=" + dbName,
			"listen_addresses = '*'",
		},
		ExposedPorts: []string{port},
	}, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		log.Printf("Starting docker pool failed, skipping database tests: %v", err)
		os.Exit(m.Run())
	}

	if !*doPauseAtExit {
		const expireSeconds = 60
		_ = resource.Expire(expireSeconds)
	}

	// Connect to the database and install the indexing schema.
	conn := fmt.Sprintf(dsn, user, password, resource.GetPort(port+"/tcp"), dbName)
	var sink *EventSink
	if err := pool.Retry(func() error {
		var err error
		sink, err = NewEventSink(conn, chainID)
		if err != nil {
			return err
		}
		return sink.DB().Ping()
	}); err != nil {
		log.Fatalf("Connecting to database: %v", err)
	}
	if err := sink.Migrate(); err != nil {
		log.Fatalf("Applying schema: %v", err)
	}

	db := sink.DB()
	testDB = func() *sql.DB { return db }

	code := m.Run()

	log.Print("Shutting down database")
	if err := pool.Purge(resource); err != nil {
		log.Printf("WARNING: Purging pool failed: %v", err)
	}
	if err := db.Close(); err != nil {
		log.Printf("WARNING: Closing database failed: %v", err)
	}
	os.Exit(code)
}

func requireDB(t *testing.T) *sql.DB {
	t.Helper()
	db := testDB()
	if db == nil {
		t.Skip("no database available")
	}
	return db
}

func testBatch(height int64) indexer.Batch {
	alice := common.HexToAddress("0x0a11ce")
	bob := common.HexToAddress("0x0b0b")
	return indexer.Batch{
		ChainID: chainID,
		Height:  height,
		Records: []types.EventRecord{
			{Seq: uint64(height * 10), Height: height, Event: &types.OptionCreated{
				ID:           7,
				Creator:      alice,
				Collateral:   uint256.NewInt(1000),
				CounterOffer: []uint64{90, 110},
			}},
			{Seq: uint64(height*10 + 1), Height: height, Event: &types.Transfer{
				From:   alice,
				To:     bob,
				Amount: uint256.NewInt(5),
			}},
		},
	}
}

func TestType(t *testing.T) {
	psqlSink := &EventSink{store: nil, chainID: chainID}
	assert.Equal(t, indexer.PSQL, psqlSink.Type())
}

func TestMigrations(t *testing.T) {
	ms := Migrations()
	require.Len(t, ms, 1)
	assert.Contains(t, ms[0].Script, "CREATE TABLE events")
}

func TestIndexing(t *testing.T) {
	db := requireDB(t)
	ctx := context.Background()
	sink := &EventSink{store: db, chainID: chainID}

	batch := testBatch(1)
	require.NoError(t, sink.IndexEvents(ctx, batch))
	// Attempting to reindex the same block should gracefully succeed.
	require.NoError(t, sink.IndexEvents(ctx, batch))

	var count int
	require.NoError(t, db.QueryRow(`
SELECT COUNT(*) FROM events JOIN blocks ON (events.block_id = blocks.rowid)
  WHERE blocks.height = $1 AND blocks.chain_id = $2;
`, 1, chainID).Scan(&count))
	assert.Equal(t, 2, count)

	var optionID int64
	require.NoError(t, db.QueryRow(`
SELECT option_id FROM event_attributes WHERE height = $1 AND composite_key = $2;
`, 1, types.EventOptionCreated+".id").Scan(&optionID))
	assert.Equal(t, int64(7), optionID)

	var bz []byte
	require.NoError(t, db.QueryRow(`SELECT abci_event FROM events WHERE seq = $1;`, 11).Scan(&bz))
	var ev abci.Event
	require.NoError(t, proto.Unmarshal(bz, &ev))
	assert.Equal(t, indexer.ABCIEvent(batch.Records[1]), ev)
}
