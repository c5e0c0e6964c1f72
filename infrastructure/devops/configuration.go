package devops

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

type ParameterClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// LoadParameter decodes the YAML document stored in the SSM parameter name into out,
// using the default AWS credential chain.
func LoadParameter(ctx context.Context, name string, out any) error {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("load aws config: %w", err)
	}
	return LoadParameterWith(ctx, ssm.NewFromConfig(cfg), name, out)
}

func LoadParameterWith(ctx context.Context, client ParameterClient, name string, out any) error {
	res, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("get parameter: %w", err)
	}
	if res.Parameter == nil || res.Parameter.Value == nil {
		return fmt.Errorf("parameter %s has no value", name)
	}

	if err := yaml.Unmarshal([]byte(*res.Parameter.Value), out); err != nil {
		return fmt.Errorf("unmarshal yaml: %w", err)
	}
	return nil
}
