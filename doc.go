/*
Package awskit implements the core runtime of a generic AWS service
client: it builds wire requests from typed operation descriptions,
signs them with Signature Version 4, dispatches them over a shared
connection pool, retries transient failures with jittered backoff and
decodes responses for the JSON, REST-JSON, REST-XML and Query/EC2
dialects.

Generated per-service bindings sit on top of this package: they supply
protocol.Operation descriptors and typed input and output shapes, and
call Client.Execute.

	client, err := awskit.New(awskit.Options{
		Config: config.ServiceConfig{
			ServiceName: "sqs",
			Region:      "eu-central-1",
			Protocol:    config.Query,
			APIVersion:  "2012-11-05",
		},
	})
	if err != nil {
		...
	}
	defer client.Shutdown()

	var out GetQueueUrlResult
	err = client.Execute(ctx, &getQueueURLOperation, GetQueueUrlInput{QueueName: "jobs"}, &out)

Credentials resolve through the default chain (environment, shared
file, ECS task metadata, EC2 instance metadata) with a singleflight
cache, unless Options.CredentialProvider overrides it.
*/
package awskit
