// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

// 包 config 提供统一配置加载：默认值 → YAML 文件 → 环境变量覆盖。
package config
