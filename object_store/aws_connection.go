package object_store

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/rs/dnscache"
	"golang.org/x/sync/semaphore"
)

const defaultAwsRegion = "us-east-1"

// AwsConnection holds the credentials and client settings shared by the S3 and CloudWatch stores.
// Unset fields fall back to the standard AWS environment and shared config files.
type AwsConnection struct {
	Profile               *string `hcl:"profile"`
	Region                *string `hcl:"region"`
	AccessKey             *string `hcl:"access_key"`
	SecretKey             *string `hcl:"secret_key"`
	SessionToken          *string `hcl:"session_token"`
	MaxErrorRetryAttempts *int    `hcl:"max_error_retry_attempts"`
	MinErrorRetryDelay    *int    `hcl:"min_error_retry_delay"`
	EndpointUrl           *string `hcl:"endpoint_url"`
	S3ForcePathStyle      *bool   `hcl:"s3_force_path_style"`
}

func (c *AwsConnection) Validate() error {
	if c.AccessKey != nil && c.SecretKey == nil {
		return fmt.Errorf("access_key set without secret_key")
	}

	if c.AccessKey == nil && c.SecretKey != nil {
		return fmt.Errorf("secret_key set without access_key")
	}

	if c.MinErrorRetryDelay != nil && *c.MinErrorRetryDelay < 1 {
		return fmt.Errorf("min_error_retry_delay must be greater than or equal to 1")
	}

	if c.MaxErrorRetryAttempts != nil && *c.MaxErrorRetryAttempts < 1 {
		return fmt.Errorf("max_error_retry_attempts must be greater than or equal to 1")
	}

	return nil
}

func (c *AwsConnection) Identifier() string {
	return "aws"
}

func (c *AwsConnection) GetClientConfiguration(ctx context.Context) (*aws.Config, error) {
	var configOptions []func(*config.LoadOptions) error

	// profile
	if c.Profile != nil {
		configOptions = append(configOptions, config.WithSharedConfigProfile(aws.ToString(c.Profile)))
	}

	// access keys
	if c.AccessKey != nil && c.SecretKey != nil {
		provider := credentials.NewStaticCredentialsProvider(aws.ToString(c.AccessKey), aws.ToString(c.SecretKey), aws.ToString(c.SessionToken))
		configOptions = append(configOptions, config.WithCredentialsProvider(provider))
	}

	if c.Region != nil {
		configOptions = append(configOptions, config.WithRegion(*c.Region))
	}

	configOptions = append(configOptions, config.WithHTTPClient(sharedHTTPClient()))

	cfg, err := config.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}
	if cfg.Region == "" {
		cfg.Region = defaultAwsRegion
	}

	// retry handling
	maxAttempts := getConfigOrEnvInt(c.MaxErrorRetryAttempts, "AWS_MAX_ATTEMPTS", 3)
	minRetryDelay := defaultMinRetryDelay
	if c.MinErrorRetryDelay != nil {
		minRetryDelay = time.Duration(*c.MinErrorRetryDelay) * time.Millisecond
	}
	retryer := retry.NewStandard(func(o *retry.StandardOptions) {
		o.MaxAttempts = maxAttempts
		o.MaxBackoff = defaultMaxRetryDelay
		o.RateLimiter = NoOpRateLimit{}
		o.Backoff = NewExponentialJitterBackoff(minRetryDelay, defaultMaxRetryDelay)
	})
	cfg.Retryer = func() aws.Retryer {
		// UnknownError is the code returned for a 408 from the aws go sdk
		return retry.AddWithErrorCodes(retryer, "UnknownError")
	}

	return &cfg, nil
}

// endpointUrl returns the custom endpoint, if any, services should be pointed at (e.g. localstack or minio)
func (c *AwsConnection) endpointUrl() string {
	return getConfigOrEnv(c.EndpointUrl, "AWS_ENDPOINT_URL")
}

func (c *AwsConnection) forcePathStyle() bool {
	return c.S3ForcePathStyle != nil && *c.S3ForcePathStyle
}

func getConfigOrEnv(configValue *string, env string) string {
	if configValue != nil {
		return *configValue
	}
	return os.Getenv(env)
}

func getConfigOrEnvInt(configValue *int, env string, defaultValue int) int {
	if configValue != nil {
		return *configValue
	}
	return readEnvVarToInt(env, defaultValue)
}

// sharedHTTPClient is a single HTTP client shared across all AWS SDK clients.
// It caches DNS lookups, limits the number of parallel lookups and caps the
// number of connections per host, so that many workers fetching from the same
// bucket do not flood the resolver or the endpoint.
var sharedHTTPClient = sync.OnceValue(initializeHTTPClient)

func initializeHTTPClient() aws.HTTPClient {
	// limit on parallel DNS lookups
	dnsLookupMaxParallel := readEnvVarToInt("TAILPIPE_AWS_DNS_LOOKUP_MAX_PARALLEL", 25)

	// Set to 0 to disable the refresh, -1 to disable the DNS cache completely.
	dnsCacheRefreshIntervalSecs := readEnvVarToInt("TAILPIPE_AWS_DNS_CACHE_REFRESH_INTERVAL_SECS", 300)

	// Set to 0 to remove the limit (which is the AWS SDK default).
	httpTransportMaxConnsPerHost := readEnvVarToInt("TAILPIPE_AWS_HTTP_TRANSPORT_MAX_CONNS_PER_HOST", 5000)

	var resolver = &dnscache.Resolver{}
	if dnsCacheRefreshIntervalSecs > 0 {
		go func() {
			t := time.NewTicker(time.Duration(dnsCacheRefreshIntervalSecs) * time.Second)
			defer t.Stop()
			for range t.C {
				resolver.Refresh(true)
			}
		}()
	}

	client := awshttp.NewBuildableClient()

	if httpTransportMaxConnsPerHost > 0 {
		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.MaxConnsPerHost = httpTransportMaxConnsPerHost
		})
	}

	if dnsCacheRefreshIntervalSecs >= 0 {
		sem := semaphore.NewWeighted(int64(dnsLookupMaxParallel))
		dialer := client.GetDialer()

		client = client.WithTransportOptions(func(tr *http.Transport) {
			tr.DialContext = func(ctx context.Context, network string, addr string) (conn net.Conn, err error) {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return nil, err
				}

				if err := sem.Acquire(ctx, 1); err != nil {
					return nil, err
				}
				ips, err := resolver.LookupHost(ctx, host)
				sem.Release(1)
				if err != nil {
					return nil, err
				}

				// try each address until one connects
				for _, ip := range ips {
					conn, err = dialer.DialContext(ctx, network, net.JoinHostPort(ip, port))
					if err == nil {
						break
					}
				}
				return
			}
		})
	}

	return client
}

func readEnvVarToInt(name string, defaultVal int) int {
	val := defaultVal
	if envValue := os.Getenv(name); envValue != "" {
		if i, err := strconv.Atoi(envValue); err == nil {
			val = i
		}
	}
	return val
}

// NoOpRateLimit disables the SDK client side retry token bucket https://github.com/aws/aws-sdk-go-v2/issues/543
// Request rate is controlled by the fetcher's rate limiter instead.
type NoOpRateLimit struct{}

func (NoOpRateLimit) AddTokens(uint) error { return nil }
func (NoOpRateLimit) GetToken(context.Context, uint) (func() error, error) {
	return noOpToken, nil
}
func noOpToken() error { return nil }
