package executor

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/launchgridgo/internal/ctxlog"
	"github.com/vk/launchgridgo/internal/dag"
	"github.com/vk/launchgridgo/internal/registry"
)

// buildDepsStruct populates the `deps` struct for a launch handler.
func (e *Executor) buildDepsStruct(ctx context.Context, node *dag.Node, handler *registry.RegisteredLauncher) (any, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Building dependency struct.", "job", node.ID)
	depsStruct := handler.NewDeps()

	if node.JobConfig.Uses == nil {
		logger.Debug("Job has no 'uses' block, returning empty deps.", "job", node.ID)
		return depsStruct, nil
	}

	usesMap := node.JobConfig.Uses
	depsValue := reflect.ValueOf(depsStruct).Elem()
	depsType := depsValue.Type()

	for i := 0; i < depsValue.NumField(); i++ {
		field := depsType.Field(i)
		fieldLogger := logger.With("job", node.ID, "go_field", field.Name)

		tag := field.Tag.Get("lggo")
		if tag == "" || tag == "-" {
			fieldLogger.Debug("Dependency field has no 'lggo' tag, skipping.")
			continue
		}

		parts := strings.Split(tag, ",")
		lookupKey := parts[0]

		resourceExpr, ok := usesMap[lookupKey]
		if !ok {
			fieldLogger.Debug("No matching entry in 'uses' block for key, skipping.", "key", lookupKey)
			continue
		}

		vars := resourceExpr.Variables()
		if len(vars) != 1 {
			return nil, fmt.Errorf("field '%s' in 'uses' must be a direct reference to one resource", lookupKey)
		}
		resourceID, err := traversalToResourceID(vars[0])
		if err != nil {
			return nil, err
		}
		fieldLogger.Debug("Resolved resource dependency.", "resource_id", resourceID)

		instance, found := e.resourceInstances.Load(resourceID)
		if !found {
			return nil, fmt.Errorf("job '%s' requires resource '%s', which has not been created", node.ID, resourceID)
		}

		instanceType := reflect.TypeOf(instance)

		// Enforce the contract the asset module declared for its type, if any.
		assetType := strings.SplitN(resourceID, ".", 3)[1]
		if contract, declared := e.registry.AssetInterfaceRegistry[assetType]; declared {
			satisfied := instanceType.AssignableTo(contract)
			if contract.Kind() == reflect.Interface {
				satisfied = instanceType.Implements(contract)
			}
			if !satisfied {
				err := fmt.Errorf("resource '%s' of type %v does not satisfy the contract %v declared for asset type '%s'", resourceID, instanceType, contract, assetType)
				fieldLogger.Error("Dependency injection failed.", "error", err)
				return nil, err
			}
		}

		fieldType := field.Type

		if fieldType.Kind() == reflect.Interface {
			if !instanceType.Implements(fieldType) {
				err := fmt.Errorf("type mismatch for '%s': resource of type %v does not implement required interface %v", lookupKey, instanceType, fieldType)
				fieldLogger.Error("Dependency injection failed.", "error", err)
				return nil, err
			}
		} else if !instanceType.AssignableTo(fieldType) {
			err := fmt.Errorf("type mismatch for '%s': resource of type %v is not assignable to field of type %v", lookupKey, instanceType, fieldType)
			fieldLogger.Error("Dependency injection failed.", "error", err)
			return nil, err
		}

		fieldLogger.Debug("Injecting resource dependency.")
		depsValue.Field(i).Set(reflect.ValueOf(instance))
	}

	logger.Debug("Successfully built dependency struct.", "job", node.ID)
	return depsStruct, nil
}

// traversalToResourceID converts an HCL traversal for a resource into its
// canonical string ID.
func traversalToResourceID(v hcl.Traversal) (string, error) {
	if len(v) < 3 {
		return "", fmt.Errorf("invalid resource traversal")
	}
	if v.RootName() != "resource" {
		return "", fmt.Errorf("expected a 'resource' traversal, got '%s'", v.RootName())
	}
	typeAttr, typeOk := v[1].(hcl.TraverseAttr)
	nameAttr, nameOk := v[2].(hcl.TraverseAttr)
	if !typeOk || !nameOk {
		return "", fmt.Errorf("invalid resource traversal")
	}
	return fmt.Sprintf("resource.%s.%s", typeAttr.Name, nameAttr.Name), nil
}
