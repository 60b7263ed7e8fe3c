// Copyright (C) 2026 Mai Hai Dang (HD24 Security Lab). Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package programs

//go:generate go run github.com/cilium/ebpf/cmd/bpf2go@latest --no-strip --target=bpfel PhantomIngress c/phantom_ingress.c -- -O2 -target bpf -I.
//go:generate go run github.com/cilium/ebpf/cmd/bpf2go@latest --no-strip --target=bpfel PhantomEgress c/phantom_egress.c -- -O2 -target bpf -I.
