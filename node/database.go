//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package node

import (
	"fmt"
	"math/big"
	"time"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DBParams define the database connection of a node store.
type DBParams struct {
	Name     string
	Username string
	Password string
	Address  string
	Port     string
	// DevMode allows falling back to the in-memory store when the
	// database is not configured or not reachable.
	DevMode bool
}

// ShareEntry is the database model of a share.
type ShareEntry struct {
	NodeID  int    `gorm:"primaryKey;autoIncrement:false"`
	InputID string `gorm:"primaryKey"`
	Value   []byte `gorm:"not null"`
}

// GammaEntry is the database model of a gamma.
type GammaEntry struct {
	NodeID int    `gorm:"primaryKey;autoIncrement:false"`
	TermID string `gorm:"primaryKey"`
	Value  []byte `gorm:"not null"`
}

// DatabaseStore implements Store with a database backend.
type DatabaseStore struct {
	db *gorm.DB
}

// NewStore creates a store for the database parameters. If the
// database address is not set or the connection fails, the function
// returns an in-memory store in development mode and an error
// otherwise.
func NewStore(params DBParams) (Store, error) {
	var db *gorm.DB
	var err error

	if params.Address != "" && params.Port != "" {
		connect := fmt.Sprintf("host=%s port=%s user=%s dbname=%s sslmode=disable",
			params.Address, params.Port, params.Username, params.Name)
		if len(params.Password) > 0 {
			connect += fmt.Sprintf(" password=%s", params.Password)
		}
		db, err = gorm.Open(postgres.Open(connect), &gorm.Config{
			Logger: logger.New(jww.TRACE, logger.Config{
				LogLevel: logger.Info,
			}),
		})
	}

	if params.Address == "" || params.Port == "" || err != nil {
		var reason string
		if err != nil {
			reason = fmt.Sprintf("unable to initialize database backend: %v",
				err)
		} else {
			reason = "database connection information not provided"
		}
		jww.WARN.Printf("node store: %s", reason)

		if !params.DevMode {
			return nil, errors.Errorf("node store: %s", reason)
		}
		jww.INFO.Println("node store: using map backend")
		return NewMapStore(), nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "node store: connection pool")
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&ShareEntry{}, &GammaEntry{}); err != nil {
		return nil, errors.Wrap(err, "node store: migrate")
	}
	jww.INFO.Println("node store: database backend initialized")

	return NewDatabaseStore(db), nil
}

// NewDatabaseStore creates a store using the database connection.
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{
		db: db,
	}
}

// Save implements Store.Save.
func (s *DatabaseStore) Save(nodeID int, b *Bundle) error {
	var shares []ShareEntry
	for _, id := range b.ShareIDs() {
		shares = append(shares, ShareEntry{
			NodeID:  nodeID,
			InputID: id,
			Value:   b.Shares[id].Bytes(),
		})
	}
	var gammas []GammaEntry
	for _, id := range b.GammaIDs() {
		gammas = append(gammas, GammaEntry{
			NodeID: nodeID,
			TermID: id,
			Value:  b.Gammas[id].Bytes(),
		})
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("node_id = ?", nodeID).Delete(&ShareEntry{}).Error
		if err != nil {
			return err
		}
		err = tx.Where("node_id = ?", nodeID).Delete(&GammaEntry{}).Error
		if err != nil {
			return err
		}
		if len(shares) > 0 {
			if err := tx.Create(&shares).Error; err != nil {
				return err
			}
		}
		if len(gammas) > 0 {
			if err := tx.Create(&gammas).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Load implements Store.Load.
func (s *DatabaseStore) Load(nodeID int) (*Bundle, error) {
	var shares []ShareEntry
	var gammas []GammaEntry

	err := s.db.Where("node_id = ?", nodeID).Find(&shares).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load shares of node %d", nodeID)
	}
	err = s.db.Where("node_id = ?", nodeID).Find(&gammas).Error
	if err != nil {
		return nil, errors.Wrapf(err, "load gammas of node %d", nodeID)
	}
	if len(shares) == 0 && len(gammas) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "bundle of node %d", nodeID)
	}

	b := NewBundle()
	for _, e := range shares {
		b.Shares[e.InputID] = new(big.Int).SetBytes(e.Value)
	}
	for _, e := range gammas {
		b.Gammas[e.TermID] = new(big.Int).SetBytes(e.Value)
	}
	return b, nil
}
