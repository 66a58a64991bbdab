// Package discovery registers the storefront API server in etcd under a
// leased key so load balancers and back-office tools can find live
// instances.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/worldpeas/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger

	leaseID clientv3.LeaseID
}

// Instance describes one running server.
type Instance struct {
	Name    string `json:"name"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	Started string `json:"started"`
}

func (i *Instance) key(prefix string) string {
	return fmt.Sprintf("%s%s/%s:%d", prefix, i.Name, i.Host, i.Port)
}

func NewRegistry(cfg *config.EtcdConfig, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}
	return &Registry{client: cli, config: cfg, logger: logger}, nil
}

// Register writes the instance under a leased key and keeps the lease alive
// until Deregister or process exit.
func (r *Registry) Register(ctx context.Context, instance *Instance) error {
	instance.Started = time.Now().UTC().Format(time.RFC3339)
	value, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	lease, err := r.client.Grant(ctx, r.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}
	r.leaseID = lease.ID

	if _, err := r.client.Put(ctx, instance.key(r.config.Prefix), string(value), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep lease alive: %w", err)
	}
	go func() {
		for range ch {
		}
		r.logger.Warn("Lease keep-alive channel closed",
			zap.String("instance", instance.key(r.config.Prefix)))
	}()

	r.logger.Info("Instance registered",
		zap.String("key", instance.key(r.config.Prefix)))
	return nil
}

// Discover lists the live instances of a service.
func (r *Registry) Discover(ctx context.Context, serviceName string) ([]*Instance, error) {
	resp, err := r.client.Get(ctx, r.config.Prefix+serviceName+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to list instances: %w", err)
	}

	instances := make([]*Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var inst Instance
		if err := json.Unmarshal(kv.Value, &inst); err != nil {
			r.logger.Warn("Skipping malformed instance record",
				zap.String("key", string(kv.Key)), zap.Error(err))
			continue
		}
		instances = append(instances, &inst)
	}
	return instances, nil
}

// Deregister removes the instance key and revokes its lease.
func (r *Registry) Deregister(ctx context.Context, instance *Instance) error {
	if _, err := r.client.Delete(ctx, instance.key(r.config.Prefix)); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}
	if r.leaseID != 0 {
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			r.logger.Warn("Failed to revoke lease", zap.Error(err))
		}
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}
