// graphdb - Configuration
// Copyright (C) 2026 GraphDB Authors
// Licensed under the GNU Affero General Public License v3 or later.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.

// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

/*
	Configurable options for the graphdb component go here.
	Everything else is set, or automatic/dynamic.

	From the [graphdb] section in /etc/openacta/openacta.conf (or whatever
	config file viper.ReadInConfig was pointed at).
*/

package config

import (
	"log"
	"os"
	"os/user"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/viper"
)

const (
	workerCountLower   = 1
	workerCountUpper   = 256
	initialElemsLower  = 64
	initialElemsUpper  = 1 << 24
	loadFactorPctLower = 10
	loadFactorPctUpper = 95
	gcWatermarkLower   = 50
	gcWatermarkUpper   = 100
)

// Config holds the graphdb-specific tunables. Fields are unexported;
// callers read them through the accessor methods below.
type Config struct {
	user  string
	uid   uint32
	group string
	gid   uint32

	storeDir string

	workerCount          uint32
	initialNumElements   uint32
	maxLoadFactorPercent uint32
	gcHighWatermarkPct   uint32
}

var config Config

var defaultConfig = Config{
	workerCount:          4,
	initialNumElements:   1024,
	maxLoadFactorPercent: 80,
	gcHighWatermarkPct:   90,
}

// StoreDir is the directory the store's backing files live under.
func (c Config) StoreDir() string { return c.storeDir }

// WorkerCount is the scheduler's fixed pool size.
func (c Config) WorkerCount() uint32 { return c.workerCount }

// InitialNumElements is the configured initial map capacity. rhmap does
// not read it: maps are created at rhmap.InitialNumElements.
func (c Config) InitialNumElements() uint32 { return c.initialNumElements }

// MaxLoadFactorPercent is the configured growth load factor. rhmap does
// not read it: maps grow at their own compile-time load factor.
func (c Config) MaxLoadFactorPercent() uint32 { return c.maxLoadFactorPercent }

// GCHighWatermarkPercent is the fraction of superseded regions allowed
// to accumulate before a caller is expected to force a reclamation pass.
func (c Config) GCHighWatermarkPercent() uint32 { return c.gcHighWatermarkPct }

// Current returns the process-wide configuration singleton, as loaded
// by ConfigureVariables.
func Current() Config { return config }

// ConfigureVariables reads every [graphdb] setting via viper, falling
// back to compiled-in defaults (applyDefaults) for anything left unset,
// and returns the number of validation errors encountered.
func ConfigureVariables() int {
	var errors int

	errors += configParseDirname(&config.storeDir, "graphdb.store_dir")
	errors += configParseInt(&config.workerCount, "graphdb.worker_count", workerCountLower, workerCountUpper)
	errors += configParseInt(&config.initialNumElements, "graphdb.initial_num_elements", initialElemsLower, initialElemsUpper)
	errors += configParseInt(&config.maxLoadFactorPercent, "graphdb.max_load_factor_percent", loadFactorPctLower, loadFactorPctUpper)
	errors += configParseInt(&config.gcHighWatermarkPct, "graphdb.gc_high_watermark_percent", gcWatermarkLower, gcWatermarkUpper)

	if err := applyDefaults(); err != nil {
		log.Printf("Error applying default configuration: %v", err)
		errors++
	}

	errors += configParseString(&config.user, "graphdb.user")
	errors += configParseString(&config.group, "graphdb.group")

	return errors
}

// applyDefaults merges defaultConfig into config, filling any field
// that configParse* left at its zero value because the key was absent
// from the config file.
func applyDefaults() error {
	if config.workerCount == 0 {
		config.workerCount = defaultConfig.workerCount
	}
	if config.initialNumElements == 0 {
		config.initialNumElements = defaultConfig.initialNumElements
	}
	if config.maxLoadFactorPercent == 0 {
		config.maxLoadFactorPercent = defaultConfig.maxLoadFactorPercent
	}
	if config.gcHighWatermarkPct == 0 {
		config.gcHighWatermarkPct = defaultConfig.gcHighWatermarkPct
	}
	return nil
}

// ValidateConfiguration checks the store directory's ownership and
// permissions before the store is allowed to open.
func ValidateConfiguration() int {
	var errors int

	errors += checkSystemUserGroup()
	errors += checkFileUserGroupAttributes(config.storeDir)

	return errors
}

func checkSystemUserGroup() int {
	var errors int

	configUser, err := user.Lookup(config.user)
	if err != nil {
		configUser, err = user.LookupId(config.user)
		if err != nil {
			log.Printf("Configured user (%s) does not exist on system", config.user)
			errors++
		}
	}

	configGroup, err := user.LookupGroup(config.group)
	if err != nil {
		configGroup, err = user.LookupGroupId(config.group)
		if err != nil {
			log.Printf("Configured group (%s) does not exist on system", config.group)
			errors++
		}
	}

	if errors > 0 {
		return errors
	}

	config.user = configUser.Username
	i, _ := strconv.Atoi(configUser.Uid)
	config.uid = uint32(i)

	config.group = configGroup.Name
	i, _ = strconv.Atoi(configGroup.Gid)
	config.gid = uint32(i)

	return errors
}

func checkFileUserGroupAttributes(path string) int {
	var errors int

	st, err := os.Stat(path)
	if err != nil {
		log.Printf("'%s': %v", path, err)
		return 1
	}

	if config.uid != 0 && config.uid != st.Sys().(*syscall.Stat_t).Uid {
		log.Printf("'%s' is not owned by configured user (%s)", path, config.user)
		errors++
	}
	if config.gid != 0 && config.gid != st.Sys().(*syscall.Stat_t).Gid {
		log.Printf("'%s' is not owned by configured group (%s)", path, config.group)
		errors++
	}

	filePerm := uint32(st.Mode().Perm())
	if (filePerm & 0007) != 0 {
		log.Printf("Permissions for '%s' are %04o, 'others' should have none", path, filePerm)
		errors++
	}

	return errors
}

func configParseString(s *string, key string) int {
	if str := viper.GetString(key); str != "" {
		*s = str
		return 0
	}
	log.Printf("Configuration entry for '%s' missing or empty", key)
	return 1
}

func configParseDirname(v *string, key string) int {
	dirpath := viper.GetString(key)
	if dirpath == "" {
		log.Printf("Configuration entry for '%s' missing or empty", key)
		return 1
	}
	*v = dirpath

	st, err := os.Stat(*v)
	if err != nil {
		log.Printf("%s path: %s", key, err)
		return 1
	} else if !st.IsDir() {
		log.Printf("%s path '%s' is not a directory", key, *v)
		return 1
	}
	return 0
}

func configParseInt(i *uint32, key string, lower, upper uint32) int {
	if !viper.IsSet(key) {
		return 0 // left at zero, applyDefaults fills it in
	}
	*i = viper.GetUint32(key)
	if *i < lower || *i > upper {
		log.Printf("Variable %s out of bounds (%d), must be between %d and %d", key, *i, lower, upper)
		return 1
	}
	return 0
}

func configParseSize(i *uint32, key string, lower, upper uint32) int {
	s := viper.GetString(key)
	if s == "" {
		return 0
	}
	multiplier := 1
	s = strings.ToUpper(s)
	switch {
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "G")
	}

	size, err := strconv.Atoi(s)
	if err != nil {
		log.Printf("Cannot parse variable %s: '%s'", key, s)
		return 1
	}
	*i = uint32(size) * uint32(multiplier)

	if *i < lower || *i > upper {
		log.Printf("Variable %s out of bounds (%d), must be between %d and %d", key, *i, lower, upper)
		return 1
	}
	return 0
}

// EOF
