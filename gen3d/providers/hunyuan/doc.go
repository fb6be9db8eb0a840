// Copyright 2026 MeshForge Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 hunyuan 实现腾讯混元生图 3D（Hunyuan To3D）生成适配器。该包直接
对接 ai3d.tencentcloudapi.com 的 TC3-HMAC-SHA256 签名接口，支持
rapid 与 pro 两档生成模式，覆盖文本、单图与三视图输入。

# 核心结构体

  - Provider — 适配器实现：提交任务、轮询状态、下载产物并写入存储
  - Config   — 凭证、模式、轮询与图像输入策略配置

# 生成流程

Submit → Poll（默认 3s × 200 次）→ 下载结果文件 → 上传存储。
auto 图像输入模式下，若服务端因 DownloadError 拉取源图失败，自动
以 ImageBase64 方式重新提交一次。

# 模式差异

  - rapid — SubmitHunyuanTo3DRapidJob，不支持三视图输入
  - pro   — SubmitHunyuanTo3DProJob，三视图 = ImageUrl(front) +
    MultiViewImages[left, right]
*/
package hunyuan
