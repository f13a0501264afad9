package object_store

import (
	"context"
	"fmt"
	"os"

	"github.com/mitchellh/go-homedir"
	"google.golang.org/api/impersonate"
	"google.golang.org/api/option"
)

type GcpConnection struct {
	// Credentials is either a path to a service account key file or the key JSON itself
	Credentials  *string `hcl:"credentials"`
	QuotaProject *string `hcl:"quota_project"`
	Impersonate  *string `hcl:"impersonate"`
	// EndpointUrl points the storage client at an emulator (e.g. fake-gcs-server)
	EndpointUrl *string `hcl:"endpoint_url"`
}

func (c *GcpConnection) Validate() error {
	if c.Credentials != nil && *c.Credentials == "" {
		return fmt.Errorf("credentials must not be empty")
	}
	return nil
}

func (c *GcpConnection) Identifier() string {
	return "gcp"
}

func (c *GcpConnection) GetClientOptions(ctx context.Context) ([]option.ClientOption, error) {
	var opts []option.ClientOption

	if c.EndpointUrl != nil {
		opts = append(opts, option.WithEndpoint(*c.EndpointUrl), option.WithoutAuthentication())
		return opts, nil
	}

	// credentials
	if c.Credentials != nil {
		contents, err := pathOrContents(*c.Credentials)
		if err != nil {
			return opts, fmt.Errorf("error reading credentials file: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON([]byte(contents)))
	}

	// quota project
	qp := os.Getenv("GOOGLE_CLOUD_QUOTA_PROJECT")
	if c.QuotaProject != nil {
		qp = *c.QuotaProject
	}
	if qp != "" {
		opts = append(opts, option.WithQuotaProject(qp))
	}

	// impersonation of service account
	if c.Impersonate != nil {
		ts, err := impersonate.CredentialsTokenSource(ctx, impersonate.CredentialsConfig{
			TargetPrincipal: *c.Impersonate,
			Scopes:          []string{"https://www.googleapis.com/auth/devstorage.read_only"},
		})
		if err != nil {
			return opts, err
		}
		opts = append(opts, option.WithTokenSource(ts))
	}
	return opts, nil
}

// pathOrContents returns the contents of the file at in, or in itself if it is not a path
func pathOrContents(in string) (string, error) {
	if len(in) == 0 {
		return "", nil
	}

	filePath := in
	if filePath[0] == '~' {
		var err error
		filePath, err = homedir.Expand(filePath)
		if err != nil {
			return filePath, err
		}
	}

	if _, err := os.Stat(filePath); err == nil {
		contents, err := os.ReadFile(filePath)
		if err != nil {
			return "", err
		}
		return string(contents), nil
	}

	if len(filePath) > 1 && (filePath[0] == '/' || filePath[0] == '\\') {
		return "", fmt.Errorf("%s: no such file or dir", filePath)
	}

	return in, nil
}
