// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv fills cfg from the moodsync environment. Each config section
// reads its own prefix (APP_, SERVER_, STORAGE_DB_, STORAGE_LOCAL_,
// ADAPTER_, WORKERS_, SYNC_), so the batch size is SYNC_BATCH_SIZE and the
// device store is STORAGE_LOCAL_DSN. CONFIG names a JSON file to read next.
// Unset variables leave their fields zero for the later layers to fill.
func parseEnv(cfg any) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("read moodsync environment: %w", err)
	}
	return nil
}
