//go:build integration

// Package integration runs the load command against real Neo4j, MinIO and
// Redis containers. Tests require Docker and are gated behind the "integration"
// build tag.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/turtacn/patentsview-graph/internal/interfaces/cli"
)

const (
	neo4jImage    = "neo4j:5.16"
	neo4jUser     = "neo4j"
	neo4jPassword = "secret123"

	redisImage = "redis:7.2-alpine"

	minioImage  = "minio/minio:RELEASE.2024-01-16T16-07-38Z"
	minioUser   = "minioadmin"
	minioSecret = "minioadmin"
)

// fixtureFiles is the end-to-end data set: three patents, one malformed
// patent row, one assignee owning P1, a citation between loaded patents and
// one to an unknown patent.
var fixtureFiles = map[string]string{
	"patent.tsv": "id\ttype\tnumber\tcountry\tdate\ttitle\tkind\tnum_claims\n" +
		"P1\tutility\t1\tUS\t1976-01-06\tFirst\tA\t2\n" +
		"P2\tutility\t2\tUS\t1976-01-06\tSecond\tA\t1\n" +
		"broken\trow\n" +
		"P3\tutility\t3\tUS\t1968-05-00\tThird\tA\t1\n",
	"assignee.tsv": "id\ttype\tname_first\tname_last\torganization\n" +
		"A1\t2\t\t\tAcme Corp\n",
	"location.tsv": "id\tcity\tstate\tcountry\tlatitude\tlongitude\n" +
		"L1\tAustin\tTX\tUS\t30.2672\t-97.7431\n",
	"uspatentcitation.tsv": "uuid\tpatent_id\tcitation_id\tdate\tcategory\tsequence\n" +
		"u1\tP1\tP2\t1975-01-01\tcited by examiner\t0\n" +
		"u2\tP3\tP9\t1975-01-01\tcited by applicant\t1\n",
	"patent_assignee.tsv": "patent_id\tassignee_id\tlocation_id\n" +
		"P1\tA1\tL1\n",
	"location_assignee.tsv": "location_id\tassignee_id\n" +
		"L1\tA1\n",
	"nber.tsv": "uuid\tpatent_id\tcategory_id\tsubcategory_id\n" +
		"n1\tP1\t1\t11\n" +
		"n2\tP2\t1\t12\n",
	"claim.tsv": "uuid\tpatent_id\ttext\tdependent\tsequence\n" +
		"c1\tP1\tA widget.\t-1\t1\n" +
		"c2\tP1\tThe widget of claim 1.\tclaim 1\t2\n",
}

func writeFixtures(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range fixtureFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	return dir
}

func writeCredentials(t *testing.T, user, password string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "credentials")
	require.NoError(t, os.WriteFile(p, []byte(user+"\n"+password+"\n"), 0o600))
	return p
}

// startNeo4j launches a Neo4j container and returns its bolt URI.
func startNeo4j(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        neo4jImage,
		ExposedPorts: []string{"7687/tcp"},
		Env: map[string]string{
			"NEO4J_AUTH": neo4jUser + "/" + neo4jPassword,
		},
		WaitingFor: wait.ForAll(
			wait.ForLog("Started."),
			wait.ForListeningPort("7687/tcp"),
		).WithDeadline(3 * time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "7687")
	require.NoError(t, err)
	return fmt.Sprintf("bolt://%s:%s", host, port.Port())
}

// startMinIO launches a MinIO container and returns its host:port endpoint.
func startMinIO(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        minioImage,
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     minioUser,
			"MINIO_ROOT_PASSWORD": minioSecret,
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(time.Minute),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

// startRedis launches a Redis container for the run lock and returns its
// host:port address.
func startRedis(t *testing.T) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        redisImage,
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(time.Minute),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)
	return fmt.Sprintf("%s:%s", host, port.Port())
}

// uploadFixtures creates bucket and stores every fixture file under prefix.
func uploadFixtures(t *testing.T, endpoint, bucket, prefix string) {
	t.Helper()
	ctx := context.Background()

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(minioUser, minioSecret, ""),
		Secure: false,
	})
	require.NoError(t, err)
	require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))

	for name, content := range fixtureFiles {
		_, err := client.PutObject(ctx, bucket, prefix+"/"+name, strings.NewReader(content), int64(len(content)),
			minio.PutObjectOptions{ContentType: "text/tab-separated-values"})
		require.NoError(t, err)
	}
	_, err = client.PutObject(ctx, bucket, prefix+"/README.txt", strings.NewReader("ignored"), 7, minio.PutObjectOptions{})
	require.NoError(t, err)
}

// runLoad executes the load command and returns its exit status and output.
func runLoad(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	var stdout, stderr bytes.Buffer
	code := cli.Execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

// count runs a single-value count query.
func count(t *testing.T, uri, query string) int64 {
	t.Helper()
	ctx := context.Background()
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(neo4jUser, neo4jPassword, ""))
	require.NoError(t, err)
	defer driver.Close(ctx)

	res, err := neo4j.ExecuteQuery(ctx, driver, query, nil, neo4j.EagerResultTransformer)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	n, ok := res.Records[0].Values[0].(int64)
	require.True(t, ok)
	return n
}

//Personal.AI order the ending
