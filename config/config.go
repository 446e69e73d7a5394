/*
Package config describes an AWS service to the client runtime: region
and partition, wire protocol dialect, API version and how to resolve
the endpoint host.
*/
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/zalando/awskit/middleware"
)

// Protocol selects the wire dialect of a service.
type Protocol int

const (
	// JSON is the target-header JSON dialect (X-Amz-Target plus an
	// application/x-amz-json body).
	JSON Protocol = iota
	// RESTJSON routes operation data through path, query and headers
	// with a JSON body.
	RESTJSON
	// RESTXML is as RESTJSON with XML bodies.
	RESTXML
	// Query is the URL-form-encoded dialect with Action/Version pairs.
	Query
	// EC2 is the Query dialect with EC2 list flattening.
	EC2
)

func (p Protocol) String() string {
	switch p {
	case JSON:
		return "json"
	case RESTJSON:
		return "rest-json"
	case RESTXML:
		return "rest-xml"
	case Query:
		return "query"
	case EC2:
		return "ec2"
	}
	return fmt.Sprintf("protocol(%d)", int(p))
}

// Partitions with distinct DNS suffixes.
const (
	PartitionAWS      = "aws"
	PartitionAWSCN    = "aws-cn"
	PartitionAWSUSGov = "aws-us-gov"
)

var partitionDNSSuffix = map[string]string{
	PartitionAWS:      "amazonaws.com",
	PartitionAWSCN:    "amazonaws.com.cn",
	PartitionAWSUSGov: "amazonaws.com",
}

// ConfigurationError reports an unusable client configuration.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "client configuration: " + e.Message
}

// ErrorFactory attempts to build a service-specific error from a
// decoded code/message pair. It reports false when the code is not one
// of its own.
type ErrorFactory func(code, message string, status int) (error, bool)

// ServiceConfig is the static description of one AWS service as seen
// by the client runtime.
type ServiceConfig struct {
	// Region the requests go to. Falls back to AWS_DEFAULT_REGION.
	Region string

	// Partition the region belongs to, default "aws".
	Partition string

	// ServiceName is the endpoint prefix, e.g. "s3" or "dynamodb".
	ServiceName string

	// SigningName overrides the credential scope service segment when
	// it differs from ServiceName.
	SigningName string

	// Protocol is the wire dialect.
	Protocol Protocol

	// JSONVersion is the x-amz-json content type version for the JSON
	// dialect, e.g. "1.1".
	JSONVersion string

	// TargetPrefix prefixes the X-Amz-Target header for JSON dialect
	// services that require it.
	TargetPrefix string

	// APIVersion is the service API version, sent as Version= for the
	// query dialects.
	APIVersion string

	// Endpoint overrides endpoint resolution entirely when set.
	Endpoint string

	// ServiceEndpoints maps regions to endpoint hosts for services
	// that deviate from the standard scheme.
	ServiceEndpoints map[string]string

	// PartitionEndpoint names the ServiceEndpoints entry serving the
	// whole partition, for global services.
	PartitionEndpoint string

	// Timeout bounds one operation execution including retries.
	Timeout time.Duration

	// Middlewares transform outgoing requests and incoming responses.
	Middlewares []middleware.Middleware

	// PossibleErrorTypes are tried in order when decoding an error
	// response, before the generic taxonomy.
	PossibleErrorTypes []ErrorFactory
}

// WithDefaults returns a copy with region, partition and signing name
// resolved.
func (c ServiceConfig) WithDefaults() ServiceConfig {
	if c.Region == "" {
		c.Region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if c.Partition == "" {
		c.Partition = PartitionAWS
	}
	if c.SigningName == "" {
		c.SigningName = c.ServiceName
	}
	return c
}

// Validate reports configuration the client cannot work with.
func (c *ServiceConfig) Validate() error {
	if c.ServiceName == "" {
		return &ConfigurationError{Message: "missing service name"}
	}
	if c.Region == "" && c.Endpoint == "" && c.PartitionEndpoint == "" {
		return &ConfigurationError{Message: "missing region for service " + c.ServiceName}
	}
	if _, ok := partitionDNSSuffix[c.Partition]; c.Partition != "" && !ok {
		return &ConfigurationError{Message: "unknown partition " + c.Partition}
	}
	return nil
}

// ResolveEndpoint returns the https endpoint for the configured
// region: an explicit endpoint wins, then the per-region table, then
// the partition entry, then the standard
// <service>.<region>.<dns-suffix> scheme.
func (c *ServiceConfig) ResolveEndpoint() (string, error) {
	if c.Endpoint != "" {
		return c.Endpoint, nil
	}
	if host, ok := c.ServiceEndpoints[c.Region]; ok {
		return "https://" + host, nil
	}
	if c.PartitionEndpoint != "" {
		if host, ok := c.ServiceEndpoints[c.PartitionEndpoint]; ok {
			return "https://" + host, nil
		}
	}
	partition := c.Partition
	if partition == "" {
		partition = PartitionAWS
	}
	suffix, ok := partitionDNSSuffix[partition]
	if !ok {
		return "", &ConfigurationError{Message: "unknown partition " + partition}
	}
	if c.Region == "" {
		return "", &ConfigurationError{Message: "missing region for service " + c.ServiceName}
	}
	return "https://" + c.ServiceName + "." + c.Region + "." + suffix, nil
}
