package app

import (
	"github.com/vk/launchgridgo/internal/registry"
	"github.com/vk/launchgridgo/modules/artifact"
	"github.com/vk/launchgridgo/modules/env_vars"
	"github.com/vk/launchgridgo/modules/fetch"
	"github.com/vk/launchgridgo/modules/notify"
	"github.com/vk/launchgridgo/modules/print"
	"github.com/vk/launchgridgo/modules/train"
)

// coreModules is the definitive list of all modules that are compiled into
// the launchgridgo binary.
var coreModules = []registry.Module{
	&env_vars.Module{},
	&print.Module{},
	&fetch.Module{},
	&artifact.Module{},
	&notify.Module{},
	&train.Module{},
}
