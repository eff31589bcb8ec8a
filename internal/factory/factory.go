package factory

import (
	"fmt"
	"strings"

	"go-capture-guide/internal/config"
	"go-capture-guide/internal/device"
	"go-capture-guide/internal/storage"
	"go-capture-guide/pkg/validation"
)

// DeviceType represents different kinds of capture devices
type DeviceType string

const (
	// SyntheticDevice renders a moving test scene
	SyntheticDevice DeviceType = "synthetic"
	// ReplayDevice plays back recorded frames from a frame store
	ReplayDevice DeviceType = "replay"
)

// StorageType represents different types of frame store backends
type StorageType string

const (
	// HTTPStorage for frames served over HTTP
	HTTPStorage StorageType = "http"
	// AzureStorage for Azure blob storage
	AzureStorage StorageType = "azure"
	// LocalStorage for local file system
	LocalStorage StorageType = "local"
)

// DeviceFactory creates capture devices
type DeviceFactory interface {
	CreateDevice(deviceType DeviceType) (device.Device, error)
}

// StorageFactory creates frame store implementations
type StorageFactory interface {
	CreateStorage(storageType StorageType) (storage.FrameStore, error)
}

// storageFactory implements StorageFactory
type storageFactory struct {
	cfg *config.Config
}

// NewStorageFactory creates a new storage factory
func NewStorageFactory(cfg *config.Config) StorageFactory {
	return &storageFactory{cfg: cfg}
}

// CreateStorage creates a frame store based on the specified type.
// The replay source is a directory for local stores, a comma separated
// URL list for HTTP stores and a blob name prefix for Azure.
func (f *storageFactory) CreateStorage(storageType StorageType) (storage.FrameStore, error) {
	switch storageType {
	case HTTPStorage:
		urls := splitList(f.cfg.ReplaySource)
		if len(urls) == 0 {
			return nil, fmt.Errorf("http frame store needs at least one URL")
		}
		if err := validation.NewURLValidator().ValidateFrameURLs(urls); err != nil {
			return nil, err
		}
		return storage.NewHTTPFrameStore(urls), nil
	case AzureStorage:
		return storage.NewAzureFrameStore(f.cfg.AzureAccountName, f.cfg.AzureAccountKey, f.cfg.AzureContainer, f.cfg.ReplaySource)
	case LocalStorage:
		return storage.NewLocalFrameStore(f.cfg.ReplaySource), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

// deviceFactory implements DeviceFactory
type deviceFactory struct {
	cfg     *config.Config
	storage StorageFactory
}

// NewDeviceFactory creates a new device factory
func NewDeviceFactory(cfg *config.Config, storage StorageFactory) DeviceFactory {
	return &deviceFactory{cfg: cfg, storage: storage}
}

// CreateDevice creates a device based on the specified type. Every device
// is wrapped so that only one session can hold it at a time.
func (f *deviceFactory) CreateDevice(deviceType DeviceType) (device.Device, error) {
	switch deviceType {
	case SyntheticDevice:
		return device.Exclusive(device.NewSynthetic()), nil
	case ReplayDevice:
		store, err := f.storage.CreateStorage(StorageType(f.cfg.ReplayStore))
		if err != nil {
			return nil, fmt.Errorf("replay frame store: %w", err)
		}
		return device.Exclusive(device.NewReplay(store, f.cfg.ReplayFrameInterval)), nil
	default:
		return nil, fmt.Errorf("unsupported device type: %s", deviceType)
	}
}

// ComponentFactory combines all factories
type ComponentFactory struct {
	DeviceFactory  DeviceFactory
	StorageFactory StorageFactory
}

// NewComponentFactory creates a new component factory
func NewComponentFactory(cfg *config.Config) *ComponentFactory {
	storage := NewStorageFactory(cfg)
	return &ComponentFactory{
		DeviceFactory:  NewDeviceFactory(cfg, storage),
		StorageFactory: storage,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
