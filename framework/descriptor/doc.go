// Package descriptor reads beans.yaml, the deployment descriptor that
// enables interceptors, decorators and alternatives, declares stereotypes
// and adds scopes.
//
//	interceptors:          # run in this order
//	  - shop.AuditInterceptor
//	decorators:
//	  - shop.LoudCart
//	alternatives:
//	  classes: [shop.MockPayment]
//	  stereotypes: [shop.Mock]
//	stereotypes:
//	  - name: shop.Mock
//	    alternative: true
//	    scope: RequestScoped
//	scopes:
//	  - kind: TenantScoped
//	    normal: true
//
// Typical bootstrap:
//
//	d, err := descriptor.Load(cfg.Descriptor.Path)
//	cc := cfg.ContainerSettings()
//	cc.Scopes = d.ScopeDefs()
//	dep := container.NewDeployment(cc)
//	err = d.Apply(dep)
package descriptor
